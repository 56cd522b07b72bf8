package pipeline

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// InitModel はバックエンドのモデルを初期化し、進捗転送を接続します。
// async の場合は初期化をワーカープールで行い、結果は OnModelInitialized で
// 公開します。同期の場合は完了まで待って error を返します。
func (p *Pipeline) InitModel(ctx context.Context, cfg ModelConfig, async bool) error {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()

	p.bridge.SetProgressFunc(p.forwardProgress)

	if !async {
		ok, err := p.bridge.InitModel(ctx, cfg.Options)
		p.setModelReady(ok && err == nil)
		p.publishModelInitialized(ok && err == nil)
		if err != nil {
			return fmt.Errorf("モデル初期化に失敗しました: %w", err)
		}
		return nil
	}

	p.pool.SubmitTask(worker.Task{
		ID: int(p.taskID.Add(1)),
		Do: func() (any, error) {
			ok, err := p.bridge.InitModel(ctx, cfg.Options)
			p.setModelReady(ok && err == nil)
			p.publishModelInitialized(ok && err == nil)
			return nil, err
		},
	})
	return nil
}

// ReleaseModel は進捗転送を切り離してモデルを解放します。
func (p *Pipeline) ReleaseModel(ctx context.Context) error {
	p.bridge.SetProgressFunc(nil)
	p.setModelReady(false)
	return p.bridge.ReleaseModel(ctx)
}

// HasToken はバックエンドにアクセストークンが保存済みかを返します。
func (p *Pipeline) HasToken() bool {
	return p.bridge.Token() != ""
}

// Token は保存済みのアクセストークンを返します。
func (p *Pipeline) Token() string {
	return p.bridge.Token()
}

// LoginWithToken はトークンの検証と保存をバックエンドへ委譲します。
func (p *Pipeline) LoginWithToken(ctx context.Context, token string) (bool, error) {
	return p.bridge.LoginWithToken(ctx, token)
}

func (p *Pipeline) setModelReady(ready bool) {
	p.mu.Lock()
	p.modelReady = ready
	p.mu.Unlock()
}

func (p *Pipeline) publishModelInitialized(ok bool) {
	p.publish(func(ev Events) {
		if ev.OnModelInitialized != nil {
			ev.OnModelInitialized(ok)
		}
	})
}

// forwardProgress はバックエンドの進捗をメインエグゼキュータ上で再公開します。
func (p *Pipeline) forwardProgress(progress domain.Progress) {
	p.publish(func(ev Events) {
		if ev.OnProgress != nil {
			ev.OnProgress(progress)
		}
	})
}
