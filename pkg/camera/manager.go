// Package camera は一時的なオフスクリーンキャプチャカメラのライフサイクルを
// 管理します。カメラはビューポートカメラの位置・回転・視野角をミラーリングし、
// 生成・更新・破棄はすべてメインコンテキストで行います。
package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
)

// ErrNoViewport はアクティブな透視投影ビューポートが見つからない場合の
// 番兵エラーです。致命的ではなく、呼び出し側が確認して短絡します。
var ErrNoViewport = errors.New("アクティブな透視投影ビューポートがありません")

// ErrDestroyed は破棄済みカメラへの二重破棄を示します。
// 正しい順序制御の下では発生せず、発生した場合は不変条件違反です。
var ErrDestroyed = errors.New("キャプチャカメラは破棄済みです")

// ViewportClient はミラーリング元になるビューポートカメラです。
type ViewportClient interface {
	Location() domain.Vec3
	Rotation() domain.Rotator
	FieldOfView() float64
	Perspective() bool
}

// EditorWorld はカメラの生成に必要なエディタ側の協調者です。
type EditorWorld interface {
	// ViewportClients は現在のビューポートカメラを列挙します。
	ViewportClients() []ViewportClient

	// SpawnCaptureSource は設定付きのキャプチャソースをシーンへ生成します。
	SpawnCaptureSource(cfg render.CaptureConfig) (render.CaptureSource, error)
}

// ViewportCapture は一時キャプチャカメラ 1 体のハンドルです。
// Source が所有実体、Viewport はミラーリング元への弱参照に相当します。
type ViewportCapture struct {
	Source   render.CaptureSource
	Viewport ViewportClient

	mu        sync.Mutex
	destroyed bool
}

// Manager は一時キャプチャカメラの生成・ミラーリング・破棄を担います。
type Manager struct {
	world EditorWorld

	mu             sync.Mutex
	previewRefresh func()
}

// NewManager はエディタ協調者を注入してマネージャを作成します。
func NewManager(world EditorWorld) (*Manager, error) {
	if world == nil {
		return nil, fmt.Errorf("world (EditorWorld) is required")
	}
	return &Manager{world: world}, nil
}

// Create はアクティブな透視投影ビューポートを探し、そのカメラを
// ミラーリングする一時キャプチャカメラを生成します。
// ビューポートが見つからない場合は ErrNoViewport を返します。
func (m *Manager) Create() (*ViewportCapture, error) {
	var client ViewportClient
	for _, vc := range m.world.ViewportClients() {
		if vc != nil && vc.Perspective() {
			client = vc
			break
		}
	}
	if client == nil {
		return nil, ErrNoViewport
	}

	source, err := m.world.SpawnCaptureSource(render.DefaultCaptureConfig())
	if err != nil {
		return nil, fmt.Errorf("キャプチャソースの生成に失敗しました: %w", err)
	}

	capture := &ViewportCapture{Source: source, Viewport: client}
	if err := m.Update(capture); err != nil {
		return nil, err
	}
	return capture, nil
}

// Update はビューポートカメラの位置・回転・視野角をキャプチャカメラへ複製
// します。レイヤープレビューが有効な場合は、プレビューが追従し続けるように
// 当該レイヤーの再キャプチャ（非合成）を起動します。
func (m *Manager) Update(capture *ViewportCapture) error {
	if capture == nil || capture.Source == nil {
		return fmt.Errorf("capture camera is required")
	}
	capture.mu.Lock()
	if capture.destroyed {
		capture.mu.Unlock()
		return ErrDestroyed
	}
	capture.mu.Unlock()

	capture.Source.SetTransform(domain.Transform{
		Location: capture.Viewport.Location(),
		Rotation: capture.Viewport.Rotation(),
	})
	capture.Source.SetFieldOfView(capture.Viewport.FieldOfView())

	m.mu.Lock()
	refresh := m.previewRefresh
	m.mu.Unlock()
	if refresh != nil {
		refresh()
	}
	return nil
}

// Destroy は一時カメラを解放します。安全に呼べるのは一度だけで、
// 二重破棄は不変条件違反としてエラーを返します（黙って成功しません）。
func (m *Manager) Destroy(capture *ViewportCapture) error {
	if capture == nil {
		return fmt.Errorf("capture camera is required")
	}
	capture.mu.Lock()
	if capture.destroyed {
		capture.mu.Unlock()
		slog.Error("キャプチャカメラの二重破棄を検出しました")
		return ErrDestroyed
	}
	capture.destroyed = true
	capture.mu.Unlock()

	if err := capture.Source.Destroy(); err != nil {
		return fmt.Errorf("キャプチャソースの解放に失敗しました: %w", err)
	}
	return nil
}

// SetPreviewRefresh はカメラ更新時に呼ぶプレビュー再キャプチャを登録します。
// nil で解除します。
func (m *Manager) SetPreviewRefresh(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previewRefresh = fn
}
