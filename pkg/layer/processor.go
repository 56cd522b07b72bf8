// Package layer はシーンから個別のデータチャンネル（最終カラー、深度、
// 法線など）を抽出するレイヤープロセッサを提供します。
// プロセッサは BeginCapture → Capture → EndCapture → Process の順で駆動され、
// この一連が完了して初めてピクセルバッファが有効になります。
package layer

import (
	"fmt"
	"log/slog"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/render"
)

// Processor は 1 種類のデータチャンネルを抽出する能力です。
// すべての実装はキャプチャソースが nil の場合に落ちずに no-op となり、
// Process は空バッファを返さなければなりません。
type Processor interface {
	// Kind はこのプロセッサが抽出するチャンネル種別を返します。
	Kind() domain.LayerKind

	// Target は BeginCapture で確保したレンダーターゲットを返します。
	// BeginCapture 前は nil です。
	Target() *render.Target

	// BeginCapture はキャプチャ用ターゲットを確保してソースへ束縛します。
	// Capture より前に必ず呼び出します。
	BeginCapture(size domain.Size, source render.CaptureSource)

	// Capture は種別に応じたパスでシーンを描画します。
	Capture(source render.CaptureSource, composite bool) error

	// EndCapture は BeginCapture で差し替えたソースの状態を復元します。
	EndCapture(source render.CaptureSource)

	// Process はレンダーターゲットの内容を解釈してピクセルを返します。
	// ターゲットに副作用はなく、次の Capture まで同一の結果を返します。
	Process(target *render.Target) domain.PixelBuffer
}

// base は Processor のパス束縛とターゲット管理の共通部分です。
// 種別ごとの差は束縛するパスと Process の解釈だけです。
type base struct {
	kind  domain.LayerKind
	pass  render.Pass
	began bool

	target *render.Target
	prev   *render.Target
}

func (b *base) Kind() domain.LayerKind { return b.kind }

func (b *base) Target() *render.Target { return b.target }

func (b *base) BeginCapture(size domain.Size, source render.CaptureSource) {
	if source == nil {
		// ソースなしでは何も束縛しない。後続呼び出しはすべて no-op になる。
		return
	}
	b.target = render.NewTarget(size)
	b.prev = source.Target()
	source.SetTarget(b.target)
	b.began = true
}

func (b *base) Capture(source render.CaptureSource, composite bool) error {
	if source == nil {
		return nil
	}
	if !b.began {
		slog.Warn("BeginCapture が呼ばれていないため Capture をスキップします", "kind", b.kind)
		return nil
	}
	if err := source.Capture(b.pass, composite); err != nil {
		return fmt.Errorf("レイヤー %s のキャプチャに失敗しました: %w", b.kind, err)
	}
	return nil
}

func (b *base) EndCapture(source render.CaptureSource) {
	if source == nil || !b.began {
		return
	}
	source.SetTarget(b.prev)
	b.prev = nil
	b.began = false
}

func (b *base) Process(target *render.Target) domain.PixelBuffer {
	if target == nil {
		return domain.PixelBuffer{}
	}
	return target.Snapshot()
}
