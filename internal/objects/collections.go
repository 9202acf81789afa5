package objects

import (
	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// decodeFields 在会话游标上连续解码 n 条子记录。
// 每条记录至少占 1 字节，n 超过剩余字节数时直接判定为截断。
func decodeFields(s *objstream.Session, n int) ([]objstream.Record, error) {
	cur := s.Cursor()
	if n > cur.Remaining() {
		return nil, merr.WrapErrTruncatedStream(cur.Offset(), n, cur.Remaining(), "field records")
	}
	out := make([]objstream.Record, n)
	for i := range out {
		rec, err := s.DecodeOne()
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// Collection 对应标签 20-23（Array、OrderedCollection、Set、IdentitySet）。
type Collection struct {
	tag      objstream.ClassTag
	Elements []objstream.Record
}

func (c *Collection) Populate(tag objstream.ClassTag, cur *objstream.Cursor, s *objstream.Session) error {
	c.tag = tag
	n, err := cur.ReadUint32()
	if err != nil {
		return err
	}
	c.Elements, err = decodeFields(s, int(n))
	return err
}

func (c *Collection) Resolve(t *objstream.Table) error {
	return t.ResolveAll(c.Elements)
}

func (c *Collection) ClassTag() objstream.ClassTag {
	return c.tag
}

func (c *Collection) Len() int {
	return len(c.Elements)
}

// Entry 是字典中的一个键值对。
type Entry struct {
	Key   objstream.Record
	Value objstream.Record
}

// Dictionary 对应标签 24 与 25：u32 条目数，之后是交替的键和值。
type Dictionary struct {
	tag     objstream.ClassTag
	Entries []Entry
}

func (d *Dictionary) Populate(tag objstream.ClassTag, cur *objstream.Cursor, s *objstream.Session) error {
	d.tag = tag
	n, err := cur.ReadUint32()
	if err != nil {
		return err
	}
	fields, err := decodeFields(s, 2*int(n))
	if err != nil {
		return err
	}
	d.Entries = make([]Entry, n)
	for i := range d.Entries {
		d.Entries[i] = Entry{Key: fields[2*i], Value: fields[2*i+1]}
	}
	return nil
}

func (d *Dictionary) Resolve(t *objstream.Table) error {
	for i := range d.Entries {
		pair := []objstream.Record{d.Entries[i].Key, d.Entries[i].Value}
		if err := t.ResolveAll(pair); err != nil {
			return err
		}
		d.Entries[i] = Entry{Key: pair[0], Value: pair[1]}
	}
	return nil
}

func (d *Dictionary) ClassTag() objstream.ClassTag {
	return d.tag
}

// Get 按字符串键查找值，键可以是 String、Symbol 或 UTF8。
// 只在修正阶段完成后使用，未解析的引用键不会命中。
func (d *Dictionary) Get(key string) (objstream.Record, bool) {
	for _, e := range d.Entries {
		if k, ok := StringValue(e.Key.Object()); ok && k == key {
			return e.Value, true
		}
	}
	return objstream.Record{}, false
}

// Keys 返回所有字符串键，保持流中的顺序。
func (d *Dictionary) Keys() []string {
	keys := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if k, ok := StringValue(e.Key.Object()); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// StringValue 取出 String、Symbol 或 UTF8 对象的文本。
func StringValue(o objstream.Object) (string, bool) {
	switch v := o.(type) {
	case *String:
		return v.Value, true
	case *UTF8:
		return v.Value, true
	default:
		return "", false
	}
}
