package camera

import (
	"fmt"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
)

// --- Mocks ---

type mockViewportClient struct {
	location    domain.Vec3
	rotation    domain.Rotator
	fov         float64
	perspective bool
}

func (m *mockViewportClient) Location() domain.Vec3    { return m.location }
func (m *mockViewportClient) Rotation() domain.Rotator { return m.rotation }
func (m *mockViewportClient) FieldOfView() float64     { return m.fov }
func (m *mockViewportClient) Perspective() bool        { return m.perspective }

type mockSource struct {
	target    *render.Target
	transform domain.Transform
	fov       float64
	config    render.CaptureConfig
	destroyed bool
	captures  int
}

func (m *mockSource) Target() *render.Target     { return m.target }
func (m *mockSource) SetTarget(t *render.Target) { m.target = t }

func (m *mockSource) Capture(render.Pass, bool) error {
	m.captures++
	return nil
}

func (m *mockSource) SetTransform(tr domain.Transform) { m.transform = tr }
func (m *mockSource) SetFieldOfView(deg float64)       { m.fov = deg }

func (m *mockSource) Destroy() error {
	if m.destroyed {
		return fmt.Errorf("double destroy")
	}
	m.destroyed = true
	return nil
}

type mockWorld struct {
	clients  []ViewportClient
	spawned  []*mockSource
	spawnErr error
}

func (m *mockWorld) ViewportClients() []ViewportClient { return m.clients }

func (m *mockWorld) SpawnCaptureSource(cfg render.CaptureConfig) (render.CaptureSource, error) {
	if m.spawnErr != nil {
		return nil, m.spawnErr
	}
	src := &mockSource{config: cfg}
	m.spawned = append(m.spawned, src)
	return src, nil
}
