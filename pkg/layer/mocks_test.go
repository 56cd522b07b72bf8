package layer

import (
	"fmt"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
)

// --- Mocks ---

// fakeSource はパスごとに決め打ちの色を描画するキャプチャソースです。
type fakeSource struct {
	target    *render.Target
	fill      map[render.Pass]domain.Color
	captured  []render.Pass
	destroyed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		fill: map[render.Pass]domain.Color{
			render.PassFinalColor:  {R: 10, G: 20, B: 30, A: 255},
			render.PassSceneDepth:  {R: 128, A: 255},
			render.PassWorldNormal: {B: 255, A: 255},
		},
	}
}

func (f *fakeSource) Target() *render.Target     { return f.target }
func (f *fakeSource) SetTarget(t *render.Target) { f.target = t }

func (f *fakeSource) Capture(pass render.Pass, composite bool) error {
	if f.target == nil {
		return fmt.Errorf("no render target bound")
	}
	f.captured = append(f.captured, pass)
	size := f.target.Resolution()
	pixels := make([]domain.Color, size.Area())
	for i := range pixels {
		pixels[i] = f.fill[pass]
	}
	return f.target.Write(pixels)
}

func (f *fakeSource) SetTransform(domain.Transform) {}
func (f *fakeSource) SetFieldOfView(float64)        {}

func (f *fakeSource) Destroy() error {
	if f.destroyed {
		return fmt.Errorf("already destroyed")
	}
	f.destroyed = true
	return nil
}
