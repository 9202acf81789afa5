package objects

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"

	"github.com/lk2023060901/scratchfile-go/internal/objstream"
)

// readSized 读取 u32 元素个数，再读取 count*width 字节。
// 先检查剩余字节数，避免按损坏的长度字段分配内存。
func readSized(cur *objstream.Cursor, width int) (int, []byte, error) {
	n, err := cur.ReadUint32()
	if err != nil {
		return 0, nil, err
	}
	b, err := cur.ReadBytes(int(n) * width)
	if err != nil {
		return 0, nil, err
	}
	return int(n), b, nil
}

// String 对应标签 9（String）与 10（Symbol），内容为 MacRoman 编码。
type String struct {
	tag   objstream.ClassTag
	Value string
}

func (s *String) Populate(tag objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	s.tag = tag
	_, b, err := readSized(cur, 1)
	if err != nil {
		return err
	}
	decoded, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return err
	}
	s.Value = string(decoded)
	return nil
}

func (s *String) ClassTag() objstream.ClassTag {
	return s.tag
}

// IsSymbol 判断是否为 Symbol。
func (s *String) IsSymbol() bool {
	return s.tag == TagSymbol
}

func (s *String) String() string {
	return s.Value
}

// UTF8 对应标签 14，内容按原样视为 UTF-8。
type UTF8 struct {
	Value string
}

func (u *UTF8) Populate(_ objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	_, b, err := readSized(cur, 1)
	if err != nil {
		return err
	}
	u.Value = string(b)
	return nil
}

func (u *UTF8) ClassTag() objstream.ClassTag {
	return TagUTF8
}

func (u *UTF8) String() string {
	return u.Value
}

// ByteArray 对应标签 11。
type ByteArray struct {
	Value []byte
}

func (a *ByteArray) Populate(_ objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	_, b, err := readSized(cur, 1)
	if err != nil {
		return err
	}
	a.Value = append([]byte(nil), b...)
	return nil
}

func (a *ByteArray) ClassTag() objstream.ClassTag {
	return TagByteArray
}

// SoundBuffer 对应标签 12：u32 采样数加大端 int16 采样。
type SoundBuffer struct {
	Samples []int16
}

func (sb *SoundBuffer) Populate(_ objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	n, b, err := readSized(cur, 2)
	if err != nil {
		return err
	}
	sb.Samples = make([]int16, n)
	for i := range sb.Samples {
		sb.Samples[i] = int16(binary.BigEndian.Uint16(b[2*i:]))
	}
	return nil
}

func (sb *SoundBuffer) ClassTag() objstream.ClassTag {
	return TagSoundBuffer
}

// Bitmap 对应标签 13：u32 字数加大端 u32 字。
type Bitmap struct {
	Words []uint32
}

func (bm *Bitmap) Populate(_ objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	n, b, err := readSized(cur, 4)
	if err != nil {
		return err
	}
	bm.Words = make([]uint32, n)
	for i := range bm.Words {
		bm.Words[i] = binary.BigEndian.Uint32(b[4*i:])
	}
	return nil
}

func (bm *Bitmap) ClassTag() objstream.ClassTag {
	return TagBitmap
}
