package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/scene-diffusion-kit/pkg/camera"
	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
	"github.com/shouni/scene-diffusion-kit/pkg/viewport"
)

// --- Mocks ---

// mockBridge は生成バックエンドの差し替えです。
type mockBridge struct {
	mu           sync.Mutex
	generateFunc func(ctx context.Context, input domain.GenerationInput) domain.GenerationResult
	upsampleFunc func(ctx context.Context, result domain.GenerationResult) domain.GenerationResult
	initErr      error
	generated    int
	lastInput    domain.GenerationInput
	stopped      bool
	token        string
	progressFn   func(domain.Progress)
}

func (m *mockBridge) InitModel(ctx context.Context, opts domain.ModelOptions) (bool, error) {
	if m.initErr != nil {
		return false, m.initErr
	}
	return true, nil
}

func (m *mockBridge) ReleaseModel(ctx context.Context) error { return nil }

func (m *mockBridge) GenerateFromInput(ctx context.Context, input domain.GenerationInput) domain.GenerationResult {
	m.mu.Lock()
	m.generated++
	m.lastInput = input
	fn := m.generateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, input)
	}
	return domain.GenerationResult{Options: input.Options, Completed: true}
}

func (m *mockBridge) Upsample(ctx context.Context, result domain.GenerationResult) domain.GenerationResult {
	m.mu.Lock()
	fn := m.upsampleFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, result)
	}
	result.Upsampled = true
	return result
}

func (m *mockBridge) StopGeneration() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *mockBridge) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *mockBridge) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mockBridge) LoginWithToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("token is required")
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return true, nil
}

func (m *mockBridge) SetProgressFunc(fn func(domain.Progress)) {
	m.mu.Lock()
	m.progressFn = fn
	m.mu.Unlock()
}

func (m *mockBridge) emitProgress(p domain.Progress) {
	m.mu.Lock()
	fn := m.progressFn
	m.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

func (m *mockBridge) LastInput() domain.GenerationInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInput
}

func (m *mockBridge) Generated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generated
}

// fakeViewport はフレームフックを手動で発火できるビューポートです。
type fakeViewport struct {
	mu    sync.Mutex
	size  domain.Size
	hooks map[int]func(viewport.Frame)
	next  int
}

func newFakeViewport(size domain.Size) *fakeViewport {
	return &fakeViewport{size: size, hooks: map[int]func(viewport.Frame){}}
}

func (v *fakeViewport) Size() domain.Size { return v.size }

func (v *fakeViewport) AddFrameHook(fn func(viewport.Frame)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.next
	v.next++
	v.hooks[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.hooks, id)
	}
}

// DeliverFrame はレンダースレッドのフレーム確定を模倣します。
func (v *fakeViewport) DeliverFrame(f viewport.Frame) {
	v.mu.Lock()
	hooks := make([]func(viewport.Frame), 0, len(v.hooks))
	for _, fn := range v.hooks {
		hooks = append(hooks, fn)
	}
	v.mu.Unlock()
	for _, fn := range hooks {
		fn(f)
	}
}

// fakeEditor はクリーンビューの取得と復元を記録します。
type fakeEditor struct {
	vp *fakeViewport

	mu       sync.Mutex
	acquired int
	restored int
}

func (e *fakeEditor) ActiveViewport() (viewport.Viewport, bool) {
	if e.vp == nil {
		return nil, false
	}
	return e.vp, true
}

func (e *fakeEditor) BeginCleanView() func() {
	e.mu.Lock()
	e.acquired++
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		e.restored++
		e.mu.Unlock()
	}
}

func (e *fakeEditor) counts() (acquired, restored int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acquired, e.restored
}

// mockSource はパスごとに決め打ちの色を描画するキャプチャソースです。
type mockSource struct {
	mu        sync.Mutex
	target    *render.Target
	captured  []render.Pass
	destroyed bool
	transform domain.Transform
	fov       float64
}

func passFill(pass render.Pass) domain.Color {
	switch pass {
	case render.PassSceneDepth:
		return domain.Color{R: 128, A: 255}
	case render.PassWorldNormal:
		return domain.Color{B: 255, A: 255}
	}
	return domain.Color{R: 10, G: 20, B: 30, A: 255}
}

func (s *mockSource) Target() *render.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *mockSource) SetTarget(t *render.Target) {
	s.mu.Lock()
	s.target = t
	s.mu.Unlock()
}

func (s *mockSource) Capture(pass render.Pass, composite bool) error {
	s.mu.Lock()
	s.captured = append(s.captured, pass)
	t := s.target
	s.mu.Unlock()
	if t == nil {
		return fmt.Errorf("no render target bound")
	}
	size := t.Resolution()
	pixels := make([]domain.Color, size.Area())
	for i := range pixels {
		pixels[i] = passFill(pass)
	}
	return t.Write(pixels)
}

func (s *mockSource) SetTransform(tr domain.Transform) {
	s.mu.Lock()
	s.transform = tr
	s.mu.Unlock()
}

func (s *mockSource) SetFieldOfView(fov float64) {
	s.mu.Lock()
	s.fov = fov
	s.mu.Unlock()
}

func (s *mockSource) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("already destroyed")
	}
	s.destroyed = true
	return nil
}

func (s *mockSource) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *mockSource) CapturedPasses() []render.Pass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]render.Pass(nil), s.captured...)
}

type mockViewportClient struct {
	location    domain.Vec3
	rotation    domain.Rotator
	fov         float64
	perspective bool
}

func (c *mockViewportClient) Location() domain.Vec3    { return c.location }
func (c *mockViewportClient) Rotation() domain.Rotator { return c.rotation }
func (c *mockViewportClient) FieldOfView() float64     { return c.fov }
func (c *mockViewportClient) Perspective() bool        { return c.perspective }

// mockWorld は生成されたキャプチャソースを記録するエディタワールドです。
type mockWorld struct {
	mu      sync.Mutex
	clients []camera.ViewportClient
	spawned []*mockSource
}

func (w *mockWorld) ViewportClients() []camera.ViewportClient {
	return w.clients
}

func (w *mockWorld) SpawnCaptureSource(cfg render.CaptureConfig) (render.CaptureSource, error) {
	src := &mockSource{}
	w.mu.Lock()
	w.spawned = append(w.spawned, src)
	w.mu.Unlock()
	return src, nil
}

func (w *mockWorld) Spawned() []*mockSource {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*mockSource(nil), w.spawned...)
}
