// Package render はキャプチャ先のレンダーターゲットと、シーン側の
// キャプチャソースに対する狭いインターフェースを定義します。
// シーンの描画そのものはエンジン側の協調者が担います。
package render

import (
	"fmt"
	"sync"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// Target は 1 つのレイヤーキャプチャを受けるピクセル面です。
// 書き込みはキャプチャソース、読み出しはレイヤープロセッサが行うため、
// 両者の競合を避けるよう内部でロックします。
type Target struct {
	mu     sync.RWMutex
	size   domain.Size
	pixels []domain.Color
}

// NewTarget は size の解像度を持つゼロ初期化済みターゲットを確保します。
func NewTarget(size domain.Size) *Target {
	return &Target{
		size:   size,
		pixels: make([]domain.Color, size.Area()),
	}
}

// Resolution は設定済みの解像度を返します。
func (t *Target) Resolution() domain.Size {
	if t == nil {
		return domain.Size{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Write はターゲット全面をピクセル列で置き換えます。
// 長さが解像度と一致しない場合はエラーです。
func (t *Target) Write(pixels []domain.Color) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(pixels) != t.size.Area() {
		return fmt.Errorf("ピクセル数が解像度と一致しません: got %d, want %d", len(pixels), t.size.Area())
	}
	copy(t.pixels, pixels)
	return nil
}

// Snapshot は現在の内容を複製した所有バッファを返します。
// 次の書き込みまで、繰り返し呼んでも同一の内容が得られます。
func (t *Target) Snapshot() domain.PixelBuffer {
	if t == nil {
		return domain.PixelBuffer{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := domain.NewPixelBuffer(t.size)
	copy(out.Pixels, t.pixels)
	return out
}
