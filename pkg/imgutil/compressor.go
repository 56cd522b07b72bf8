package imgutil

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

// DefaultJPEGQuality は quality 未指定（0 以下）の場合に使う品質です。
const DefaultJPEGQuality = 75

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に圧縮します。
// image.Decodeがサポートするフォーマットに対応しています。
// quality は 1〜100 に丸め、0 以下は DefaultJPEGQuality として扱います。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	} else if quality > 100 {
		quality = 100
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
