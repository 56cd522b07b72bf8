package domain

// Color は RGBA 各 8bit の 1 ピクセルです。
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// PixelBuffer は幅×高さ×4チャンネルの連続したピクセル列を所有します。
// レイヤーの再キャプチャ時は部分更新ではなくバッファごと置き換えます。
type PixelBuffer struct {
	Size   Size
	Pixels []Color
}

// NewPixelBuffer は指定サイズのゼロ初期化済みバッファを確保します。
// ゼロサイズの場合は空バッファを返します。
func NewPixelBuffer(size Size) PixelBuffer {
	if size.IsZero() {
		return PixelBuffer{}
	}
	return PixelBuffer{
		Size:   size,
		Pixels: make([]Color, size.Area()),
	}
}

// Empty はピクセルを 1 つも保持していないかどうかを返します。
func (b PixelBuffer) Empty() bool {
	return len(b.Pixels) == 0
}

// At は (x, y) のピクセルを返します。範囲外はゼロ値です。
func (b PixelBuffer) At(x, y int) Color {
	if x < 0 || y < 0 || x >= b.Size.X || y >= b.Size.Y {
		return Color{}
	}
	return b.Pixels[y*b.Size.X+x]
}

// Clone はピクセル列を複製した独立バッファを返します。
func (b PixelBuffer) Clone() PixelBuffer {
	if b.Empty() {
		return PixelBuffer{}
	}
	dup := make([]Color, len(b.Pixels))
	copy(dup, b.Pixels)
	return PixelBuffer{Size: b.Size, Pixels: dup}
}
