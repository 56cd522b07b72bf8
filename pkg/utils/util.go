package utils

import (
	"fmt"

	"github.com/shouni/scene-diffusion-kit/pkg/domain"
)

// DereferenceSeed は、int64のポインタを安全にデリファレンスします。
// ポインタがnilの場合は0を返します。
func DereferenceSeed(seed *int64) int64 {
	if seed == nil {
		return 0
	}
	return *seed
}

// SeedToPtrInt32 は *int64 を SDK 用の *int32 に変換します。
// Imagen API は int32 を期待しているための調整です。
func SeedToPtrInt32(seed *int64) *int32 {
	if seed == nil {
		return nil
	}
	v := int32(*seed)
	return &v
}

// AspectRatio はサイズを「16:9」のような既約のアスペクト比文字列へ変換します。
// ゼロサイズの場合は "1:1" を返します。
func AspectRatio(size domain.Size) string {
	if size.IsZero() {
		return "1:1"
	}
	d := gcd(size.X, size.Y)
	return fmt.Sprintf("%d:%d", size.X/d, size.Y/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
