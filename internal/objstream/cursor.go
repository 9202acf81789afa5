package objstream

import (
	"encoding/binary"
	"math"

	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// Cursor 是一个只进不退的字节游标，按容器的原生布局（大端）读取数据。
//
// 约定：
//   - 所有读取在字节不足时返回 merr.ErrTruncatedStream，并携带失败位置的偏移量；
//   - 读取失败后游标位置不做保证，调用方应视整个会话为失败。
type Cursor struct {
	data []byte
	off  int
}

// NewCursor 创建一个从 data 起始位置开始读取的游标。
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset 返回下一次读取的位置。
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining 返回尚未读取的字节数。
func (c *Cursor) Remaining() int {
	return len(c.data) - c.off
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("negative read length %d at offset %d", n, c.off)
	}
	if c.Remaining() < n {
		return nil, merr.WrapErrTruncatedStream(c.off, n, c.Remaining())
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadByte 读取一个字节。
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes 读取 n 个字节。返回值引用底层数据，调用方如需持有应自行拷贝。
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.take(n)
}

func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint24 读取 3 字节大端无符号整数，用于对象引用下标。
func (c *Cursor) ReadUint24() (uint32, error) {
	b, err := c.take(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

// ReadFloat64 读取 8 字节 IEEE 754 双精度浮点数。
func (c *Cursor) ReadFloat64() (float64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}
