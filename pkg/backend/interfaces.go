// Package backend は画像生成バックエンド能力を定義します。
// バックエンドは不透明で、呼び出しは遅くブロックし得るため、
// パイプラインは必ずバックグラウンドワーカーから起動します。
package backend

import (
	"context"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// Bridge は生成バックエンドへの統合窓口です。
// 失敗は error ではなく GenerationResult の失敗として返し、
// ワーカー→メインコンテキストの引き渡しを成功時と同じ経路に揃えます。
type Bridge interface {
	// InitModel はモデルを初期化します。成功可否を返します。
	InitModel(ctx context.Context, opts domain.ModelOptions) (bool, error)

	// ReleaseModel はロード済みモデルを解放します。
	ReleaseModel(ctx context.Context) error

	// GenerateFromInput は合成済み入力から画像を生成します。
	// バックエンドの失敗は Completed=false の結果として返します。
	GenerateFromInput(ctx context.Context, input domain.GenerationInput) domain.GenerationResult

	// Upsample は生成結果を高解像度化します。
	Upsample(ctx context.Context, result domain.GenerationResult) domain.GenerationResult

	// StopGeneration は進行中の生成へ停止を要求します。
	// 協調的なベストエフォートであり、即時の完了は保証しません。
	StopGeneration()

	// Token は保存済みのアクセストークンを返します。未設定は空文字列です。
	Token() string

	// LoginWithToken はトークンを検証して保存します。
	LoginWithToken(ctx context.Context, token string) (bool, error)

	// SetProgressFunc は生成中の進捗通知先を登録します。nil で解除します。
	SetProgressFunc(fn func(domain.Progress))
}
