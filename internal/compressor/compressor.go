package compressor

import "bytes"

// Compressor 抽象了整块数据的压缩与解压。
//
// 工程文件一次性读入内存，因此只提供整块接口，不提供流式接口。
type Compressor interface {
	// Compress 将 src 压缩后追加到 dst[:0]，返回完整的压缩数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将 src 解压后追加到 dst[:0]，返回完整的原始数据。
	Decompress(dst, src []byte) (plain []byte, err error)

	// Detect 判断 src 是否为本实现能够解压的格式。
	Detect(src []byte) bool
}

// NopCompressor 原样返回输入，表示未压缩的数据。
type NopCompressor struct{}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Detect([]byte) bool {
	return true
}

var _ Compressor = NopCompressor{}

// ZstdMagic 是 zstd 帧的起始魔数。
var ZstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Select 返回第一个能识别 src 的压缩器，都不能识别时返回 NopCompressor。
func Select(src []byte, candidates ...Compressor) Compressor {
	for _, c := range candidates {
		if c != nil && c.Detect(src) {
			return c
		}
	}
	return NopCompressor{}
}

func hasPrefix(src, magic []byte) bool {
	return bytes.HasPrefix(src, magic)
}
