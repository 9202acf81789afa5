package objects

import (
	"math/big"

	"github.com/lk2023060901/scratchfile-go/internal/objstream"
)

// Constant 是 nil/true/false 三个无负载的常量对象，解码时复用同一实例。
type Constant struct {
	tag objstream.ClassTag
}

var (
	Nil   = &Constant{tag: TagNil}
	True  = &Constant{tag: TagTrue}
	False = &Constant{tag: TagFalse}
)

func (c *Constant) Populate(objstream.ClassTag, *objstream.Cursor, *objstream.Session) error {
	return nil
}

func (c *Constant) ClassTag() objstream.ClassTag {
	return c.tag
}

// Value 返回常量的 Go 值：nil、true 或 false。
func (c *Constant) Value() any {
	switch c.tag {
	case TagTrue:
		return true
	case TagFalse:
		return false
	default:
		return nil
	}
}

func (c *Constant) String() string {
	switch c.tag {
	case TagTrue:
		return "true"
	case TagFalse:
		return "false"
	default:
		return "nil"
	}
}

// SmallInteger 对应标签 4（int32）与 5（int16），两者都以大端存储。
type SmallInteger struct {
	tag   objstream.ClassTag
	Value int32
}

func (i *SmallInteger) Populate(tag objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	i.tag = tag
	if tag == TagSmallInteger16 {
		v, err := cur.ReadInt16()
		i.Value = int32(v)
		return err
	}
	v, err := cur.ReadInt32()
	i.Value = v
	return err
}

func (i *SmallInteger) ClassTag() objstream.ClassTag {
	return i.tag
}

// LargeInteger 对应标签 6 与 7：u16 字节数加小端存储的绝对值，标签 7 为负数。
type LargeInteger struct {
	tag   objstream.ClassTag
	Value *big.Int
}

func (i *LargeInteger) Populate(tag objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	i.tag = tag
	n, err := cur.ReadUint16()
	if err != nil {
		return err
	}
	b, err := cur.ReadBytes(int(n))
	if err != nil {
		return err
	}
	be := make([]byte, len(b))
	for k := range b {
		be[len(b)-1-k] = b[k]
	}
	i.Value = new(big.Int).SetBytes(be)
	if tag == TagLargeNegativeInteger {
		i.Value.Neg(i.Value)
	}
	return nil
}

func (i *LargeInteger) ClassTag() objstream.ClassTag {
	return i.tag
}

// Float 对应标签 8，大端 IEEE 754 双精度。
type Float struct {
	Value float64
}

func (f *Float) Populate(_ objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	v, err := cur.ReadFloat64()
	f.Value = v
	return err
}

func (f *Float) ClassTag() objstream.ClassTag {
	return TagFloat
}
