package viewport

import (
	"fmt"
	"sync"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// State はフレームグラバーの状態です。
type State int

const (
	// StateIdle はキャプチャしていない状態です。
	StateIdle State = iota
	// StateCapturing はフレーム確定シグナルを待ち受けている状態です。
	StateCapturing
	// StateFrameDelivered は直近の要求へフレームを配送済みの状態です。
	StateFrameDelivered
)

// FrameGrabber は 1 つのビューポートから「ちょうど 1 フレーム」を待機中の
// 消費者へ届けます。保留できる要求は常に最大 1 件で、新しい要求は古い要求を
// 無言で置き換えます（置き換えられた消費者は二度と呼ばれません）。
type FrameGrabber struct {
	mu sync.Mutex

	vp        Viewport
	frameSize domain.Size

	state    State
	consumer func(Frame)
	remove   func()
}

// NewFrameGrabber はビューポートとフレームサイズを束ねたグラバーを作成します。
func NewFrameGrabber(vp Viewport, frameSize domain.Size) (*FrameGrabber, error) {
	if vp == nil {
		return nil, fmt.Errorf("viewport is required")
	}
	return &FrameGrabber{vp: vp, frameSize: frameSize}, nil
}

// State は現在の状態を返します。
func (g *FrameGrabber) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// StartCapturing はレンダースレッドのフレーム確定シグナルの待ち受けを開始します。
// 既にキャプチャ中の場合は何もしません。
func (g *FrameGrabber) StartCapturing() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateIdle {
		return
	}
	g.state = StateCapturing
	g.remove = g.vp.AddFrameHook(g.onFrameReady)
}

// RequestFrame は一度だけ呼ばれる消費者を登録します。
// 既に消費者が登録済みの場合は無言で置き換えます。これは配送保証ではなく
// 先取り（pre-emption）ポリシーです。
func (g *FrameGrabber) RequestFrame(consumer func(Frame)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consumer = consumer
}

// StopCapturing は待ち受けを止めて Idle へ戻します。
// 未配送の保留要求は破棄されます。
func (g *FrameGrabber) StopCapturing() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consumer = nil
	if g.remove != nil {
		g.remove()
		g.remove = nil
	}
	g.state = StateIdle
}

// onFrameReady はレンダースレッドのコンテキストで呼ばれます。
// 登録済みの消費者を 1 回だけ起動します。ペイロードのピクセル参照は
// この呼び出しの間だけ有効なので、消費者は必要な分を写し取ります。
func (g *FrameGrabber) onFrameReady(f Frame) {
	g.mu.Lock()
	consumer := g.consumer
	g.consumer = nil
	if consumer != nil {
		g.state = StateFrameDelivered
	}
	g.mu.Unlock()

	if consumer != nil {
		consumer(f)
	}
}

// FrameSize は開始時に指定したフレームサイズを返します。
func (g *FrameGrabber) FrameSize() domain.Size {
	return g.frameSize
}
