package domain

// Size は幅と高さをピクセル単位で保持します。
type Size struct {
	X int
	Y int
}

// IsZero は幅または高さが 0 以下かどうかを返します。
func (s Size) IsZero() bool {
	return s.X <= 0 || s.Y <= 0
}

// Area はピクセル総数を返します。ゼロサイズの場合は 0 です。
func (s Size) Area() int {
	if s.IsZero() {
		return 0
	}
	return s.X * s.Y
}

// Vec3 はワールド空間の位置ベクトルです。
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Rotator はオイラー角（度数法）による回転です。
type Rotator struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// Transform はキャプチャカメラへミラーリングする位置と回転のペアです。
type Transform struct {
	Location Vec3
	Rotation Rotator
}

// ProjectionType はビューポートカメラの投影方式です。
type ProjectionType int

const (
	// ProjectionPerspective は透視投影です。
	ProjectionPerspective ProjectionType = iota
	// ProjectionOrthographic は平行投影です。
	ProjectionOrthographic
)

// CameraInfo はエディタカメラ移動イベント 1 回分の情報です。
// 同一の情報が連続して届いた場合の抑制（デバウンス）は受信側の責務です。
type CameraInfo struct {
	Location      Vec3
	Rotation      Rotator
	Projection    ProjectionType
	ViewportIndex int
}
