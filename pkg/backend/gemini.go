package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
	"github.com/shouni/scene-diffusion-kit/pkg/imgutil"
	"github.com/shouni/scene-diffusion-kit/pkg/utils"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// GeminiBridge は Bridge を Gemini バックエンドで実装する統合ジェネレーターです。
type GeminiBridge struct {
	aiClient gemini.GenerativeModel
	core     *InputCore
	model    string

	mu         sync.Mutex
	token      string
	progressFn func(domain.Progress)

	initialized atomic.Bool
	stopped     atomic.Bool
}

// NewGeminiBridge は GeminiBridge を初期化するのだ。
func NewGeminiBridge(aiClient gemini.GenerativeModel, core *InputCore, model string) (*GeminiBridge, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (gemini.GenerativeModel) is required")
	}
	if core == nil {
		return nil, fmt.Errorf("core (InputCore) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &GeminiBridge{
		aiClient: aiClient,
		core:     core,
		model:    model,
	}, nil
}

// InitModel はモデルを初期化します。
// opts.Model が指定されていればデフォルトのモデル名を上書きします。
func (g *GeminiBridge) InitModel(ctx context.Context, opts domain.ModelOptions) (bool, error) {
	g.mu.Lock()
	if opts.Model != "" {
		g.model = opts.Model
	}
	model := g.model
	g.mu.Unlock()

	g.initialized.Store(true)
	slog.InfoContext(ctx, "モデルを初期化しました", "model", model, "revision", opts.Revision)
	return true, nil
}

// ReleaseModel はロード済みモデルを解放します。
func (g *GeminiBridge) ReleaseModel(ctx context.Context) error {
	if !g.initialized.CompareAndSwap(true, false) {
		return fmt.Errorf("モデルは初期化されていません")
	}
	slog.InfoContext(ctx, "モデルを解放しました", "model", g.model)
	return nil
}

// GenerateFromInput は合成済み入力から画像を生成するのだ。
// 失敗は error ではなく Completed=false の結果として返すのだよ。
func (g *GeminiBridge) GenerateFromInput(ctx context.Context, input domain.GenerationInput) domain.GenerationResult {
	opts := input.Options
	if !g.initialized.Load() {
		return failedResult(opts, fmt.Errorf("モデルが初期化されていません"))
	}
	g.stopped.Store(false)

	g.emitProgress(domain.Progress{Step: 0, Progress: 0, Size: opts.InSize})

	parts := []*genai.Part{{Text: opts.Prompt}}

	// 開始画像（任意）
	if opts.StartImageURL != "" {
		if imgPart := g.core.PrepareImagePart(ctx, opts.StartImageURL); imgPart != nil {
			parts = append(parts, imgPart)
		}
	}

	// レイヤー画像は並列にエンコードし、順序を保って連結する
	encoded := make([]*genai.Part, len(input.Layers))
	var eg errgroup.Group
	for i, l := range input.Layers {
		eg.Go(func() error {
			part, err := g.encodeLayerPart(l)
			if err != nil {
				return fmt.Errorf("レイヤー '%s' のエンコードに失敗しました: %w", l.Kind, err)
			}
			encoded[i] = part
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return failedResult(opts, err)
	}
	for _, p := range encoded {
		if p != nil {
			parts = append(parts, p)
		}
	}

	if g.stopped.Load() {
		return failedResult(opts, fmt.Errorf("生成は停止されました"))
	}

	gOpts := gemini.GenerateOptions{
		AspectRatio:  utils.AspectRatio(opts.OutSize),
		SystemPrompt: opts.NegativePrompt,
		Seed:         opts.Seed,
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gOpts)
	if err != nil {
		return failedResult(opts, fmt.Errorf("Gemini生成エラー: %w", err))
	}

	if g.stopped.Load() {
		return failedResult(opts, fmt.Errorf("生成は停止されました"))
	}

	out, err := g.core.ParseToResponse(resp, utils.DereferenceSeed(opts.Seed))
	if err != nil {
		return failedResult(opts, fmt.Errorf("レスポンス解析エラー: %w", err))
	}

	pixels, err := imgutil.DecodeToBuffer(out.Data)
	if err != nil {
		return failedResult(opts, fmt.Errorf("生成画像のデコードに失敗しました: %w", err))
	}

	g.emitProgress(domain.Progress{Step: opts.Iterations, Progress: 1, Size: pixels.Size, Pixels: pixels})

	return domain.GenerationResult{
		Options:   opts,
		Pixels:    pixels,
		Completed: true,
	}
}

// Upsample は生成結果をローカルで高解像度化します。
func (g *GeminiBridge) Upsample(ctx context.Context, result domain.GenerationResult) domain.GenerationResult {
	if !result.Completed {
		return failedResult(result.Options, fmt.Errorf("未完了の結果は高解像度化できません"))
	}

	upsized, err := imgutil.Upscale(result.Pixels, localUpscaleFactor)
	if err != nil {
		return failedResult(result.Options, fmt.Errorf("高解像度化に失敗しました: %w", err))
	}

	slog.InfoContext(ctx, "高解像度化が完了しました",
		"from", result.Pixels.Size, "to", upsized.Size)

	result.Pixels = upsized
	result.Upsampled = true
	return result
}

// StopGeneration は進行中の生成へ停止を要求します。協調的なベストエフォートです。
func (g *GeminiBridge) StopGeneration() {
	g.stopped.Store(true)
}

// Token は保存済みのアクセストークンを返します。
func (g *GeminiBridge) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// LoginWithToken はトークンを検証して保存します。
func (g *GeminiBridge) LoginWithToken(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("token is required")
	}
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	return true, nil
}

// SetProgressFunc は進捗通知先を登録します。nil で解除します。
func (g *GeminiBridge) SetProgressFunc(fn func(domain.Progress)) {
	g.mu.Lock()
	g.progressFn = fn
	g.mu.Unlock()
}

func (g *GeminiBridge) emitProgress(p domain.Progress) {
	g.mu.Lock()
	fn := g.progressFn
	g.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// encodeLayerPart はレイヤーのピクセルをエンコードしてパーツ化するのだ。
// 空レイヤーは nil を返して省略するのだよ。
func (g *GeminiBridge) encodeLayerPart(l domain.LayerData) (*genai.Part, error) {
	if l.Pixels.Size.IsZero() {
		return nil, nil
	}
	data, err := imgutil.EncodePNG(l.Pixels)
	if err != nil {
		return nil, err
	}
	if UseImageCompression {
		if compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality); err == nil {
			data = compressed
		}
	}
	return g.core.ToPart(data), nil
}

func failedResult(opts domain.GenerationOptions, err error) domain.GenerationResult {
	return domain.GenerationResult{Options: opts, Err: err.Error()}
}
