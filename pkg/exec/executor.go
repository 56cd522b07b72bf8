// Package exec は実行コンテキスト間の明示的なメッセージパッシングを提供
// します。ビューポートやエディタ状態の変更とイベント発行は、すべて単一の
// メイン実行コンテキストへディスパッチして行います。
package exec

import "sync"

// Executor は関数を特定の実行コンテキストへ引き渡します。
type Executor interface {
	Dispatch(fn func())
}

// Serial は単一ゴルーチンでキューを順に消化するエグゼキュータです。
// 投入順の実行が保証されます。
type Serial struct {
	queue chan func()
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewSerial は消化ゴルーチンを起動した Serial を返します。
func NewSerial() *Serial {
	s := &Serial{
		queue: make(chan func(), 64),
		quit:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Serial) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case fn := <-s.queue:
			fn()
		}
	}
}

// Dispatch は fn をキューへ投入します。Close 後の投入は黙って破棄されます。
func (s *Serial) Dispatch(fn func()) {
	select {
	case <-s.quit:
	case s.queue <- fn:
	}
}

// Close は消化ゴルーチンを停止します。複数回呼んでも安全です。
// 未消化のキュー内容は破棄されます。
func (s *Serial) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

// Immediate は呼び出し元のゴルーチンでそのまま実行するエグゼキュータです。
// テストや、既にメインコンテキスト上にいることが保証される場面で使います。
type Immediate struct{}

// Dispatch は fn を即時実行します。
func (Immediate) Dispatch(fn func()) { fn() }
