package compressor

import (
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd，持有独立的 encoder/decoder，
// 生命周期由调用方管理。EncodeAll/DecodeAll 可以并发调用。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*ZstdCompressor)(nil)

// NewZstdCompressor 创建一个并发度为 GOMAXPROCS 的 ZstdCompressor。
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorWithConcurrency(0)
}

// NewZstdCompressorWithConcurrency 创建一个 ZstdCompressor，concurrency <= 0 时使用 GOMAXPROCS。
// maxMemory 限制单次解压的输出大小，0 表示使用 zstd 的默认上限。
func NewZstdCompressorWithConcurrency(concurrency int, maxMemory ...uint64) (*ZstdCompressor, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(concurrency),
	)
	if err != nil {
		return nil, err
	}
	decOpts := []zstd.DOption{zstd.WithDecoderConcurrency(concurrency)}
	if len(maxMemory) > 0 && maxMemory[0] > 0 {
		decOpts = append(decOpts, zstd.WithDecoderMaxMemory(maxMemory[0]))
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCompressor{enc: enc, dec: dec}, nil
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	return c.dec.DecodeAll(src, dst[:0])
}

// Detect 通过帧魔数识别 zstd 数据。
func (c *ZstdCompressor) Detect(src []byte) bool {
	return hasPrefix(src, ZstdMagic)
}

// Close 释放 encoder/decoder，之后的调用返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
