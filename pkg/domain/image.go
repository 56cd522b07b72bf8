package domain

// LayerKind はシーンから抽出するデータチャンネルの種別です。
// 組み込みの種別に加えて、利用側が独自の値を登録できます。
type LayerKind string

const (
	// LayerFinalColor はトーンマッピング後の最終カラーです。
	LayerFinalColor LayerKind = "final_color"
	// LayerDepth は線形化したシーン深度です。
	LayerDepth LayerKind = "depth"
	// LayerNormals はワールド空間法線です。
	LayerNormals LayerKind = "normals"
)

// InputSource は generate 要求のキャプチャ経路です。
type InputSource int

const (
	// InputSourceViewport はライブビューポートからのキャプチャです。
	InputSourceViewport InputSource = iota
	// InputSourceSceneCapture2D はオフスクリーンのシーンキャプチャからの
	// キャプチャです。ライブフレームは不要で完全に決定的です。
	InputSourceSceneCapture2D
)

// GenerationOptions は 1 回の画像生成のパラメータです。
// InSize はキャプチャ経路の確定時にパイプラインが刻印します。
type GenerationOptions struct {
	Prompt         string
	NegativePrompt string
	Seed           *int64 // nil でランダム、値指定で固定
	Strength       float64
	Iterations     int
	InSize         Size // 入力（キャプチャ）サイズ
	OutSize        Size // 希望する出力サイズ
	StartImageURL  string
}

// ModelOptions は生成バックエンドのモデル初期化パラメータです。
// レイヤー構成はパイプライン側の ModelConfig が保持します。
type ModelOptions struct {
	Model       string
	Revision    string
	AllowNSFW   bool
	PaddingMode string
}

// LayerData はバックエンドへ渡す 1 レイヤー分のキャプチャ結果です。
type LayerData struct {
	Kind   LayerKind
	Pixels PixelBuffer
}

// GenerationInput は合成済みの生成要求です。バックエンドに対して不透明な
// オプションと、キャプチャ済みレイヤーの順序付き列を保持します。
type GenerationInput struct {
	Options GenerationOptions
	Layers  []LayerData
}

// GenerationResult は 1 回の生成の最終結果です。作成後は不変として扱い、
// ワーカーからメインコンテキストへ値渡しで引き渡します。
// バックエンドの失敗は例外ではなくここに失敗として格納されます。
type GenerationResult struct {
	Options   GenerationOptions
	Pixels    PixelBuffer
	Upsampled bool
	Completed bool
	Err       string
}

// Progress は生成中の進捗通知 1 回分です。
type Progress struct {
	Step     int
	Timestep int
	Progress float64
	Size     Size
	Pixels   PixelBuffer
}
