package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/scene-diffusion-kit/pkg/imgutil"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

// InputCore は生成リクエストの入力素材（参照画像・レイヤー画像）の
// 取得と変換を担う基盤クラスです。
type InputCore struct {
	reader     remoteio.InputReader
	httpClient httpkit.ClientInterface
}

// NewInputCore は依存関係を注入して InputCore を初期化します。
func NewInputCore(reader remoteio.InputReader, httpClient httpkit.ClientInterface) (*InputCore, error) {
	// どの依存関係が不足しているか具体的に示す
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}

	return &InputCore{
		reader:     reader,
		httpClient: httpClient,
	}, nil
}

// PrepareImagePart は画像 URL から生成リクエスト用のパーツを作成します。
// 取得や変換に失敗した場合は nil を返し、呼び出し元は該当パーツを省略します。
func (c *InputCore) PrepareImagePart(ctx context.Context, rawURL string) *genai.Part {
	data, err := c.FetchImageData(ctx, rawURL)
	if err != nil {
		slog.WarnContext(ctx, "参照画像の取得に失敗したためスキップします", "url", rawURL, "error", err)
		return nil
	}

	finalData := data
	if UseImageCompression {
		if compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality); err == nil {
			finalData = compressed
		}
	}

	return c.ToPart(finalData)
}

// FetchImageData は URL から画像バイト列を取得します。
// gs:// スキームは reader 経由、http(s) は SSRF 検証を通過した場合のみ取得します。
func (c *InputCore) FetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		rc, err := c.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return c.httpClient.FetchBytes(ctx, rawURL)
}

// ToPart はバイト列を画像パーツに変換します。画像以外のデータは nil を返します。
func (c *InputCore) ToPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// ParseToResponse は生成レスポンスから最初の画像データを取り出します。
func (c *InputCore) ParseToResponse(resp *gemini.Response, seed int64) (*Output, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("invalid response")
	}
	candidate := resp.RawResponse.Candidates[0]
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil {
			return &Output{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType, UsedSeed: seed}, nil
		}
	}
	return nil, fmt.Errorf("no image data")
}
