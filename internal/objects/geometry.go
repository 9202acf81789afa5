package objects

import (
	"image/color"

	"github.com/lk2023060901/scratchfile-go/internal/objstream"
)

// Color 对应标签 30 与 31。RGB 各 10 位打包在一个 u32 中，半透明颜色额外带 1 字节 alpha。
type Color struct {
	tag     objstream.ClassTag
	R, G, B uint16
	A       uint8
}

func (c *Color) Populate(tag objstream.ClassTag, cur *objstream.Cursor, _ *objstream.Session) error {
	c.tag = tag
	v, err := cur.ReadUint32()
	if err != nil {
		return err
	}
	c.R = uint16(v >> 20 & 0x3ff)
	c.G = uint16(v >> 10 & 0x3ff)
	c.B = uint16(v & 0x3ff)
	c.A = 0xff
	if tag == TagTranslucentColor {
		c.A, err = cur.ReadByte()
	}
	return err
}

func (c *Color) ClassTag() objstream.ClassTag {
	return c.tag
}

// NRGBA 把 10 位通道缩放为 8 位。
func (c *Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c.R >> 2), G: uint8(c.G >> 2), B: uint8(c.B >> 2), A: c.A}
}

// Point 对应标签 32，坐标本身是子记录（通常是整数或浮点数）。
type Point struct {
	X, Y objstream.Record
}

func (p *Point) Populate(_ objstream.ClassTag, _ *objstream.Cursor, s *objstream.Session) error {
	fields, err := decodeFields(s, 2)
	if err != nil {
		return err
	}
	p.X, p.Y = fields[0], fields[1]
	return nil
}

func (p *Point) Resolve(t *objstream.Table) error {
	fields := []objstream.Record{p.X, p.Y}
	if err := t.ResolveAll(fields); err != nil {
		return err
	}
	p.X, p.Y = fields[0], fields[1]
	return nil
}

func (p *Point) ClassTag() objstream.ClassTag {
	return TagPoint
}

// Rectangle 对应标签 33：origin.x、origin.y、corner.x、corner.y。
type Rectangle struct {
	Fields [4]objstream.Record
}

func (r *Rectangle) Populate(_ objstream.ClassTag, _ *objstream.Cursor, s *objstream.Session) error {
	fields, err := decodeFields(s, 4)
	if err != nil {
		return err
	}
	copy(r.Fields[:], fields)
	return nil
}

func (r *Rectangle) Resolve(t *objstream.Table) error {
	return t.ResolveAll(r.Fields[:])
}

func (r *Rectangle) ClassTag() objstream.ClassTag {
	return TagRectangle
}

// Form 对应标签 34（width、height、depth、offset、bits）与 35（再加 colors）。
type Form struct {
	tag    objstream.ClassTag
	Fields []objstream.Record
}

var formFieldNames = []string{"width", "height", "depth", "offset", "bits", "colors"}

func (f *Form) Populate(tag objstream.ClassTag, _ *objstream.Cursor, s *objstream.Session) error {
	f.tag = tag
	n := 5
	if tag == TagColorForm {
		n = 6
	}
	var err error
	f.Fields, err = decodeFields(s, n)
	return err
}

func (f *Form) Resolve(t *objstream.Table) error {
	return t.ResolveAll(f.Fields)
}

func (f *Form) ClassTag() objstream.ClassTag {
	return f.tag
}

// Field 按名称返回字段，名称见 formFieldNames。
func (f *Form) Field(name string) (objstream.Record, bool) {
	for i, n := range formFieldNames {
		if n == name && i < len(f.Fields) {
			return f.Fields[i], true
		}
	}
	return objstream.Record{}, false
}
