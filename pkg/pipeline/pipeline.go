// Package pipeline はキャプチャから画像生成までを統括するオーケストレーターです。
//
// 実行コンテキストは 3 つあります。ビューポート状態の操作と結果の公開は
// メインエグゼキュータ、フレーム配送はビューポートのレンダースレッド、
// バックエンド呼び出しはワーカープールで行います。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/samber/lo"

	"github.com/shouni/scene-diffusion-kit/pkg/backend"
	"github.com/shouni/scene-diffusion-kit/pkg/camera"
	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/exec"
	"github.com/shouni/scene-diffusion-kit/pkg/framebuf"
	"github.com/shouni/scene-diffusion-kit/pkg/layer"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
	"github.com/shouni/scene-diffusion-kit/pkg/viewport"
)

// ErrNotReady はバックエンド未初期化のまま生成を要求したことを示します。
var ErrNotReady = errors.New("生成バックエンドの準備ができていません")

// ErrBusy は進行中の処理がある間の二重要求を示します。
// 先行リクエストには影響しません。
var ErrBusy = errors.New("別の処理が進行中です")

// State はオーケストレーターの状態機械の現在位置です。
type State int32

const (
	StateIdle State = iota
	StateCapturingLayers
	StateAwaitingFrame
	StateGenerating
	StateUpsampling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturingLayers:
		return "capturing_layers"
	case StateAwaitingFrame:
		return "awaiting_frame"
	case StateGenerating:
		return "generating"
	case StateUpsampling:
		return "upsampling"
	}
	return "unknown"
}

// Editor はメインコンテキストで操作するエディタ側の協調者です。
type Editor interface {
	// ActiveViewport は現在の対話的ビューポートを返します。
	ActiveViewport() (viewport.Viewport, bool)

	// BeginCleanView はゲームビュー強制と画面オーバーレイの抑止を開始し、
	// 元の状態へ戻す復元関数を返します。復元は必ず呼び出されます。
	BeginCleanView() (restore func())
}

// Request は 1 回の生成要求です。キャプチャ中にレイヤー列が埋められるため、
// 実行中はオーケストレーターが排他的に所有します。
type Request struct {
	Options domain.GenerationOptions

	// Source を指定すると SceneCapture2D パスで一時カメラを作らず
	// このソースからキャプチャします。
	Source render.CaptureSource

	Layers []layer.Instance
}

// ModelConfig はモデル初期化時に一度だけ宣言される設定です。
// Layers はキャプチャ中は読み取り専用で、リクエストごとに複製されます。
type ModelConfig struct {
	Options domain.ModelOptions
	Layers  []layer.Config
}

// Events は呼び出し側への通知面です。
// すべてのコールバックはメインエグゼキュータ上で呼び出されます。
type Events struct {
	OnStarted           func(domain.GenerationOptions)
	OnProgress          func(domain.Progress)
	OnCompleted         func(domain.GenerationResult)
	OnUpsampleStarted   func()
	OnUpsampleCompleted func(domain.GenerationResult)
	OnModelInitialized  func(bool)
	OnCameraMoved       func(domain.CameraInfo)
	OnPreviewChanged    func(*render.Target)
}

// Pipeline は生成パイプラインの状態機械です。
// 同時に許す生成は 1 件で、進行中の二重要求は ErrBusy で拒否します。
type Pipeline struct {
	bridge  backend.Bridge
	cameras *camera.Manager
	editor  Editor
	main    exec.Executor
	pool    worker.DynamicWorkerPool

	state      atomic.Int32
	inFlight   atomic.Bool
	upsampling atomic.Bool
	taskID     atomic.Int64

	mu         sync.Mutex
	cfg        ModelConfig
	modelReady bool
	events     Events
	preview    *previewSession
}

// NewPipeline は依存関係を注入してオーケストレーターを作成します。
func NewPipeline(bridge backend.Bridge, cameras *camera.Manager, editor Editor, main exec.Executor, workers int) (*Pipeline, error) {
	if bridge == nil {
		return nil, fmt.Errorf("bridge is required")
	}
	if cameras == nil {
		return nil, fmt.Errorf("cameras is required")
	}
	if editor == nil {
		return nil, fmt.Errorf("editor is required")
	}
	if main == nil {
		return nil, fmt.Errorf("main executor is required")
	}
	if workers <= 0 {
		workers = 2
	}

	p := &Pipeline{
		bridge:  bridge,
		cameras: cameras,
		editor:  editor,
		main:    main,
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
	cameras.SetPreviewRefresh(p.refreshPreview)
	return p, nil
}

// SetEvents は通知面を差し替えます。
func (p *Pipeline) SetEvents(ev Events) {
	p.mu.Lock()
	p.events = ev
	p.mu.Unlock()
}

// State は状態機械の現在位置を返します。高解像度化は生成と独立に走るため、
// アイドル中に限り StateUpsampling として報告します。
func (p *Pipeline) State() State {
	s := State(p.state.Load())
	if s == StateIdle && p.upsampling.Load() {
		return StateUpsampling
	}
	return s
}

// InFlight は生成が進行中かどうかを返します。
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Generate は生成を開始します。バックエンド未初期化なら ErrNotReady、
// 既に進行中なら ErrBusy を返し、どちらも状態を変更しません。
// 受理後の残りはメインエグゼキュータに移譲され、結果は Events で公開されます。
func (p *Pipeline) Generate(ctx context.Context, req Request, source domain.InputSource) error {
	p.mu.Lock()
	ready := p.modelReady
	p.mu.Unlock()
	if !ready {
		return ErrNotReady
	}

	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}

	p.main.Dispatch(func() {
		p.runGenerate(ctx, &req, source)
	})
	return nil
}

// Cancel は進行中の生成へ停止を要求し、直ちに受理可能な状態へ戻します。
// バックエンドの復帰を待たないベストエフォートです。
func (p *Pipeline) Cancel() {
	p.bridge.StopGeneration()
	p.inFlight.Store(false)
	p.state.Store(int32(StateIdle))
}

// Upsample は生成結果の高解像度化を開始します。生成の進行とは独立で、
// 高解像度化自身の二重要求のみ ErrBusy で拒否します。
func (p *Pipeline) Upsample(ctx context.Context, result domain.GenerationResult) error {
	if !p.upsampling.CompareAndSwap(false, true) {
		return ErrBusy
	}

	p.publish(func(ev Events) {
		if ev.OnUpsampleStarted != nil {
			ev.OnUpsampleStarted()
		}
	})

	p.pool.SubmitTask(worker.Task{
		ID: int(p.taskID.Add(1)),
		Do: func() (any, error) {
			upsized := p.bridge.Upsample(ctx, result)
			p.upsampling.Store(false)
			p.publish(func(ev Events) {
				if ev.OnUpsampleCompleted != nil {
					ev.OnUpsampleCompleted(upsized)
				}
			})
			return nil, nil
		},
	})
	return nil
}

// runGenerate はメインコンテキストで残りのパイプラインを駆動します。
// ビューポート状態はスコープ付きで取得し、失敗時も必ず復元します。
func (p *Pipeline) runGenerate(ctx context.Context, req *Request, source domain.InputSource) {
	restore := p.editor.BeginCleanView()

	switch source {
	case domain.InputSourceSceneCapture2D:
		defer restore()
		p.captureScene(ctx, req)
	default:
		// ビューポートパスの復元はフレーム到着後に行う
		p.captureViewport(ctx, req, restore)
	}
}

// captureViewport はライブビューポートのパスです。一時カメラでレイヤーを
// 揃えたあと、実際に見えているフレームを 1 枚取得して FinalColor を上書きします。
func (p *Pipeline) captureViewport(ctx context.Context, req *Request, restore func()) {
	p.state.Store(int32(StateCapturingLayers))

	vp, ok := p.editor.ActiveViewport()
	if !ok {
		restore()
		p.finishFailed(req.Options, camera.ErrNoViewport)
		return
	}

	if cfg := p.modelConfig(); len(cfg.Layers) > 0 {
		cam, err := p.cameras.Create()
		if err != nil && !errors.Is(err, camera.ErrNoViewport) {
			restore()
			p.finishFailed(req.Options, err)
			return
		}
		var src render.CaptureSource
		if cam != nil {
			src = cam.Source
		}
		p.captureLayers(req, cfg.Layers, src, vp.Size())
		if cam != nil {
			if err := p.cameras.Destroy(cam); err != nil {
				slog.Error("一時カメラの破棄に失敗しました", "error", err)
			}
		}
	}

	p.state.Store(int32(StateAwaitingFrame))

	grabber, err := viewport.NewFrameGrabber(vp, vp.Size())
	if err != nil {
		restore()
		p.finishFailed(req.Options, err)
		return
	}
	grabber.StartCapturing()
	grabber.RequestFrame(func(f viewport.Frame) {
		// レンダースレッド: 参照が有効なうちに写し取る
		buf := framebuf.CopyRegion(f.TargetSize, f.BufferSize, f.Pixels)
		p.main.Dispatch(func() {
			grabber.StopCapturing()
			p.injectFinalColor(req, buf)
			req.Options.InSize = buf.Size
			restore()
			p.startGenerating(ctx, req)
		})
	})
}

// captureScene は SceneCapture2D のパスです。明示ソースがあればそれを、
// なければ一時カメラを使い、ライブフレームは取得しません。
func (p *Pipeline) captureScene(ctx context.Context, req *Request) {
	p.state.Store(int32(StateCapturingLayers))

	src := req.Source
	var cam *camera.ViewportCapture
	if src == nil {
		var err error
		cam, err = p.cameras.Create()
		if err != nil {
			p.finishFailed(req.Options, err)
			return
		}
		src = cam.Source
	}

	size := p.captureSize(src)
	p.captureLayers(req, p.modelConfig().Layers, src, size)
	req.Options.InSize = size

	if cam != nil {
		if err := p.cameras.Destroy(cam); err != nil {
			slog.Error("一時カメラの破棄に失敗しました", "error", err)
		}
	}

	p.startGenerating(ctx, req)
}

// captureLayers は宣言されたレイヤーを Begin→Capture→End→Process の順で
// 同期的に揃えます。src が nil の場合プロセッサは no-op となり、
// 空バッファのレイヤーが積まれます。
func (p *Pipeline) captureLayers(req *Request, cfgs []layer.Config, src render.CaptureSource, size domain.Size) {
	for _, c := range cfgs {
		inst := layer.Instance{Kind: c.Kind, Processor: c.Processor}

		c.Processor.BeginCapture(size, src)
		if err := c.Processor.Capture(src, false); err != nil {
			slog.Warn("レイヤーキャプチャに失敗しました", "kind", c.Kind, "error", err)
		}
		c.Processor.EndCapture(src)
		inst.Pixels = c.Processor.Process(c.Processor.Target())

		req.Layers = append(req.Layers, inst)
	}
}

// captureSize はキャプチャターゲットの解像度を優先し、
// 未設定ならビューポートサイズへフォールバックします。
func (p *Pipeline) captureSize(src render.CaptureSource) domain.Size {
	if t := src.Target(); t != nil {
		if size := t.Resolution(); !size.IsZero() {
			return size
		}
	}
	if vp, ok := p.editor.ActiveViewport(); ok {
		return vp.Size()
	}
	return domain.Size{}
}

// injectFinalColor はライブフレームを FinalColor スロットへ上書きします。
// オフスクリーン近似よりも実際に見えている出力を優先するためです。
func (p *Pipeline) injectFinalColor(req *Request, buf domain.PixelBuffer) {
	_, idx, ok := lo.FindIndexOf(req.Layers, func(i layer.Instance) bool {
		return i.Kind == domain.LayerFinalColor
	})
	if ok {
		req.Layers[idx].Pixels = buf
		return
	}
	req.Layers = append(req.Layers, layer.Instance{Kind: domain.LayerFinalColor, Pixels: buf})
}

// startGenerating は合成済み入力をワーカープールへ引き渡します。
func (p *Pipeline) startGenerating(ctx context.Context, req *Request) {
	p.state.Store(int32(StateGenerating))

	input := domain.GenerationInput{
		Options: req.Options,
		Layers: lo.Map(req.Layers, func(i layer.Instance, _ int) domain.LayerData {
			return i.Data()
		}),
	}

	p.publish(func(ev Events) {
		if ev.OnStarted != nil {
			ev.OnStarted(input.Options)
		}
	})

	p.pool.SubmitTask(worker.Task{
		ID: int(p.taskID.Add(1)),
		Do: func() (any, error) {
			result := p.bridge.GenerateFromInput(ctx, input)
			p.inFlight.Store(false)
			p.state.Store(int32(StateIdle))
			p.publish(func(ev Events) {
				if ev.OnCompleted != nil {
					ev.OnCompleted(result)
				}
			})
			return nil, nil
		},
	})
}

// finishFailed は失敗をデータとして成功と同じ経路で公開します。
func (p *Pipeline) finishFailed(opts domain.GenerationOptions, err error) {
	result := domain.GenerationResult{Options: opts, Err: err.Error()}
	p.inFlight.Store(false)
	p.state.Store(int32(StateIdle))
	p.publish(func(ev Events) {
		if ev.OnCompleted != nil {
			ev.OnCompleted(result)
		}
	})
}

func (p *Pipeline) modelConfig() ModelConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// publish はメインエグゼキュータ上でイベントを配送します。
func (p *Pipeline) publish(fn func(Events)) {
	p.mu.Lock()
	ev := p.events
	p.mu.Unlock()
	p.main.Dispatch(func() { fn(ev) })
}
