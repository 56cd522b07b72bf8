// Package framebuf はフレームバッファ間の矩形コピーを提供します。
// レンダースレッドから借用したバッファを安全に所有バッファへ写し取るための
// 純粋関数のみを置きます。
package framebuf

import (
	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// CopyRegion はストライドの異なるソースバッファから targetSize の所有バッファへ
// 行単位でコピーします。各行の幅は min(target.X, source.X)、行数は
// min(target.Y, source.Y) に切り詰められます。
//
// ソースの範囲を超える行・列はゼロ値のまま残ります（Go の確保はゼロ初期化
// されるため、呼び出し側はゼロ埋めを前提にできます）。
// 失敗モードはなく、ゼロサイズ入力に対してはゼロサイズ出力を返します。
func CopyRegion(targetSize, sourceSize domain.Size, source []domain.Color) domain.PixelBuffer {
	if targetSize.IsZero() {
		return domain.PixelBuffer{}
	}

	out := domain.NewPixelBuffer(targetSize)
	if sourceSize.IsZero() || len(source) == 0 {
		return out
	}

	maxWidth := min(targetSize.X, sourceSize.X)
	maxRows := min(targetSize.Y, sourceSize.Y)
	// ソース側が申告サイズより短い場合にも読み越さないよう行数を制限する
	if available := len(source) / sourceSize.X; available < maxRows {
		maxRows = available
	}

	for row := 0; row < maxRows; row++ {
		src := source[row*sourceSize.X : row*sourceSize.X+maxWidth]
		dst := out.Pixels[row*targetSize.X : row*targetSize.X+maxWidth]
		copy(dst, src)
	}
	return out
}
