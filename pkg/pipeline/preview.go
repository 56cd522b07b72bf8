package pipeline

import (
	"fmt"

	"github.com/shouni/scene-diffusion-kit/pkg/camera"
	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/layer"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
)

// defaultPreviewSize はビューポートが見つからない場合のプレビュー解像度です。
var defaultPreviewSize = domain.Size{X: 512, Y: 512}

// previewSession はライブレイヤープレビューの長命リソースです。
// 生成リクエストとは独立に、カメラ移動イベントで更新されます。
type previewSession struct {
	capture   *camera.ViewportCapture
	processor layer.Processor
}

// EnableLayerPreview は指定レイヤーのライブプレビューを開始し、
// 表示用のレンダーターゲットを返します。既に有効なら現在のターゲットを返します。
func (p *Pipeline) EnableLayerPreview(kind domain.LayerKind, size domain.Size) (*render.Target, error) {
	p.mu.Lock()
	if p.preview != nil {
		target := p.preview.processor.Target()
		p.mu.Unlock()
		return target, nil
	}
	p.mu.Unlock()

	proc, err := layer.New(kind)
	if err != nil {
		return nil, err
	}

	cam, err := p.cameras.Create()
	if err != nil {
		return nil, fmt.Errorf("プレビューカメラの作成に失敗しました: %w", err)
	}

	if size.IsZero() {
		if vp, ok := p.editor.ActiveViewport(); ok {
			size = vp.Size()
		} else {
			size = defaultPreviewSize
		}
	}

	proc.BeginCapture(size, cam.Source)
	if err := proc.Capture(cam.Source, false); err != nil {
		proc.EndCapture(cam.Source)
		_ = p.cameras.Destroy(cam)
		return nil, fmt.Errorf("プレビューキャプチャに失敗しました: %w", err)
	}

	session := &previewSession{capture: cam, processor: proc}
	p.mu.Lock()
	p.preview = session
	p.mu.Unlock()

	target := proc.Target()
	p.publish(func(ev Events) {
		if ev.OnPreviewChanged != nil {
			ev.OnPreviewChanged(target)
		}
	})
	return target, nil
}

// DisableLayerPreview はプレビューを停止し、カメラをメインコンテキストで
// 破棄します。有効でない場合は no-op です。
func (p *Pipeline) DisableLayerPreview() {
	p.mu.Lock()
	session := p.preview
	p.preview = nil
	p.mu.Unlock()
	if session == nil {
		return
	}

	p.main.Dispatch(func() {
		session.processor.EndCapture(session.capture.Source)
		_ = p.cameras.Destroy(session.capture)
	})
	p.publish(func(ev Events) {
		if ev.OnPreviewChanged != nil {
			ev.OnPreviewChanged(nil)
		}
	})
}

// NotifyCameraMoved はエディタカメラの移動を受け取り、プレビューカメラの
// ミラーリング更新とイベントの再公開を行います。
func (p *Pipeline) NotifyCameraMoved(info domain.CameraInfo) {
	p.mu.Lock()
	session := p.preview
	p.mu.Unlock()

	if session != nil {
		// Update がプレビューの再キャプチャも引き起こす
		_ = p.cameras.Update(session.capture)
	}

	p.publish(func(ev Events) {
		if ev.OnCameraMoved != nil {
			ev.OnCameraMoved(info)
		}
	})
}

// refreshPreview はカメラミラーリング更新のたびにプレビューレイヤーを
// 合成なしで再キャプチャします。
func (p *Pipeline) refreshPreview() {
	p.mu.Lock()
	session := p.preview
	p.mu.Unlock()
	if session == nil {
		return
	}
	_ = session.processor.Capture(session.capture.Source, false)
}
