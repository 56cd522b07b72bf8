package layer

import (
	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
)

// FinalColor はトーンマッピング後の最終カラーを抽出します。
// ビューポート経路ではライブフレームがこのレイヤーの結果を上書きします。
type FinalColor struct {
	base
}

// NewFinalColor は最終カラープロセッサを作成します。
func NewFinalColor() *FinalColor {
	return &FinalColor{base{kind: domain.LayerFinalColor, pass: render.PassFinalColor}}
}

// Depth はシーン深度を抽出し、読み出し時に線形化を適用します。
type Depth struct {
	base

	// Scale と Offset は格納深度から正規化深度への線形変換係数です。
	Scale  float64
	Offset float64
}

// NewDepth は線形化係数付きの深度プロセッサを作成します。
// scale が 0 の場合は恒等変換（scale=1, offset=0）として扱います。
func NewDepth(scale, offset float64) *Depth {
	if scale == 0 {
		scale = 1
	}
	return &Depth{
		base:   base{kind: domain.LayerDepth, pass: render.PassSceneDepth},
		Scale:  scale,
		Offset: offset,
	}
}

// Process は格納深度（R チャンネル）へ線形化を適用し、グレースケールで返します。
func (d *Depth) Process(target *render.Target) domain.PixelBuffer {
	raw := d.base.Process(target)
	for i, c := range raw.Pixels {
		v := float64(c.R)/255.0*d.Scale + d.Offset
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		g := uint8(v * 255)
		raw.Pixels[i] = domain.Color{R: g, G: g, B: g, A: 255}
	}
	return raw
}

// Normals はワールド空間法線を抽出します。
type Normals struct {
	base
}

// NewNormals は法線プロセッサを作成します。
func NewNormals() *Normals {
	return &Normals{base{kind: domain.LayerNormals, pass: render.PassWorldNormal}}
}
