// Package viewport はライブビューポートからのフレーム取得を提供します。
// フレーム配送はビューポート実装のレンダースレッドで行われるため、
// 受け取ったピクセル参照はコールバックの間だけ有効です。
package viewport

import "github.com/shouni/scene-diffusion-kit/pkg/domain"

// Frame はレンダースレッドから配送される 1 フレーム分のペイロードです。
// Pixels は借用参照であり、必要なデータはコールバック内で写し取る必要があります。
type Frame struct {
	Pixels     []domain.Color
	BufferSize domain.Size
	TargetSize domain.Size
}

// Viewport は対話的ビューポートに対する狭いインターフェースです。
// フレームフックはレンダースレッドのコンテキストで呼び出されます。
// フック内でのブロッキングや無制限の確保は禁止です。
type Viewport interface {
	// Size は現在のビューポートサイズを返します。
	Size() domain.Size

	// AddFrameHook はフレーム確定ごとに呼ばれるフックを登録し、
	// 登録解除関数を返します。
	AddFrameHook(fn func(Frame)) (remove func())
}
