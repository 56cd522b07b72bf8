package render

import "github.com/shouni/scene-diffusion-kit/pkg/domain"

// Pass はキャプチャソースに束縛する描画パスです。レイヤープロセッサの
// 種別ごとに異なるパスを束縛します。
type Pass string

const (
	// PassFinalColor は最終カラー（トーンカーブ適用後）のパスです。
	PassFinalColor Pass = "final_color"
	// PassSceneDepth はシーン深度のパスです。
	PassSceneDepth Pass = "scene_depth"
	// PassWorldNormal はワールド法線のパスです。
	PassWorldNormal Pass = "world_normal"
)

// CompositeMode はキャプチャ結果の合成方法です。
type CompositeMode int

const (
	// CompositeOverwrite はターゲット内容を毎回上書きします。
	CompositeOverwrite CompositeMode = iota
	// CompositeAdditive は加算合成します。
	CompositeAdditive
)

// CaptureConfig はキャプチャソース生成時の設定です。カメラ移動に依存せず
// 継続的にキャプチャできる構成を既定とします。
type CaptureConfig struct {
	CaptureEveryFrame     bool
	CaptureOnMovement     bool
	PersistRenderingState bool
	Composite             CompositeMode
	Source                SourceKind
}

// SourceKind はキャプチャソースが読み出すシーン出力の種類です。
type SourceKind int

const (
	// SourceFinalToneCurveHDR はトーンカーブ適用後の HDR 出力です。
	SourceFinalToneCurveHDR SourceKind = iota
	// SourceSceneColor はポストプロセス前のシーンカラーです。
	SourceSceneColor
)

// DefaultCaptureConfig は移動に依存しない連続キャプチャの既定設定です。
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		CaptureEveryFrame:     true,
		CaptureOnMovement:     false,
		PersistRenderingState: true,
		Composite:             CompositeOverwrite,
		Source:                SourceFinalToneCurveHDR,
	}
}

// CaptureSource はシーンを Target へ描画できるエンジン側の協調者です。
// 実装はメインコンテキストから呼ばれることを前提にできます。
// Destroy 後の利用は実装定義であり、破棄順序はカメラマネージャが保証します。
type CaptureSource interface {
	// Target は現在割り当てられているレンダーターゲットを返します。
	// 未割り当ての場合は nil です。
	Target() *Target

	// SetTarget はレンダーターゲットを差し替えます。nil で解除します。
	SetTarget(t *Target)

	// Capture は指定パスでシーンを描画し、現在のターゲットへ書き込みます。
	// composite が false の場合は合成モードを無視して単独で描画します。
	Capture(pass Pass, composite bool) error

	// SetTransform はカメラの位置と回転を設定します。
	SetTransform(tr domain.Transform)

	// SetFieldOfView は水平視野角（度数法）を設定します。
	SetFieldOfView(deg float64)

	// Destroy はソースとその GPU リソースを解放します。
	Destroy() error
}
