package backend

const (
	UseImageCompression     = true
	ImageCompressionQuality = 75

	// ローカル高解像度化の拡大率
	localUpscaleFactor = 2
)

// Output は InputCore の内部解析結果
type Output struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}
