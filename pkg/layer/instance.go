package layer

import "github.com/shouni/scene-diffusion-kit/pkg/domain"

// Config はモデル初期化時に一度だけ宣言されるレイヤー構成です。
// キャプチャ中は読み取り専用で、要求ごとに Instance へ複製されます。
type Config struct {
	Kind      domain.LayerKind
	Processor Processor
}

// Instance は (種別, プロセッサ, ピクセル) の三つ組です。
// Pixels は所有プロセッサの Begin→Capture→End→Process が完了して初めて
// 有効になり、再キャプチャ時はバッファごと置き換えられます。
type Instance struct {
	Kind      domain.LayerKind
	Processor Processor
	Pixels    domain.PixelBuffer
}

// Data はバックエンドへ渡す中立表現を返します。
func (i Instance) Data() domain.LayerData {
	return domain.LayerData{Kind: i.Kind, Pixels: i.Pixels}
}
