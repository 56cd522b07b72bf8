package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// EncodePNG はピクセルバッファを PNG バイト列へ変換します。
// 生成バックエンドへレイヤーを渡す際の中間表現です。
func EncodePNG(buf domain.PixelBuffer) ([]byte, error) {
	if buf.Empty() {
		return nil, fmt.Errorf("空のピクセルバッファはエンコードできません")
	}

	img := image.NewRGBA(image.Rect(0, 0, buf.Size.X, buf.Size.Y))
	for y := 0; y < buf.Size.Y; y++ {
		for x := 0; x < buf.Size.X; x++ {
			c := buf.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}

	out := new(bytes.Buffer)
	if err := png.Encode(out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeToBuffer は画像バイト列（PNG, JPEG, GIF）をピクセルバッファへ
// 変換します。バックエンドの応答画像の取り込みに使います。
func DecodeToBuffer(data []byte) (domain.PixelBuffer, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.PixelBuffer{}, err
	}

	bounds := img.Bounds()
	size := domain.Size{X: bounds.Dx(), Y: bounds.Dy()}
	out := domain.NewPixelBuffer(size)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Pixels[y*size.X+x] = domain.Color{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}
		}
	}
	return out, nil
}
