package imgutil

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// Upscale はピクセルバッファを factor 倍へ Catmull-Rom 補間で拡大します。
// factor は 1 より大きい整数である必要があります。
func Upscale(buf domain.PixelBuffer, factor int) (domain.PixelBuffer, error) {
	if buf.Empty() {
		return domain.PixelBuffer{}, fmt.Errorf("空のピクセルバッファは拡大できません")
	}
	if factor <= 1 {
		return domain.PixelBuffer{}, fmt.Errorf("拡大率は 2 以上が必要です: %d", factor)
	}

	src := image.NewRGBA(image.Rect(0, 0, buf.Size.X, buf.Size.Y))
	for y := 0; y < buf.Size.Y; y++ {
		for x := 0; x < buf.Size.X; x++ {
			c := buf.At(x, y)
			src.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}

	outSize := domain.Size{X: buf.Size.X * factor, Y: buf.Size.Y * factor}
	dst := image.NewRGBA(image.Rect(0, 0, outSize.X, outSize.Y))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := domain.NewPixelBuffer(outSize)
	for y := 0; y < outSize.Y; y++ {
		for x := 0; x < outSize.X; x++ {
			c := dst.RGBAAt(x, y)
			out.Pixels[y*outSize.X+x] = domain.Color{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return out, nil
}
