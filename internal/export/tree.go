package export

import (
	"math"
	"strconv"

	"github.com/lk2023060901/scratchfile-go/internal/objects"
	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/pkg/util/typeutil"
)

// 导出树中的保留键。
const (
	KeyClass     = "$class"
	KeyID        = "$id"
	KeyRef       = "$ref"
	KeyTruncated = "$truncated"
)

// Tree 把修正后的对象图转换为只含 map、slice 与标量的树，便于序列化。
//
// 被多处引用的复合对象第一次出现时带 "$id"，之后以 {"$ref": id} 表示，环也因此终止。
// maxDepth > 0 时，超过深度的复合对象只保留类名并标记 "$truncated"。
func Tree(root objstream.Object, maxDepth int) any {
	b := &treeBuilder{
		maxDepth: maxDepth,
		shared:   typeutil.NewSet[objstream.Object](),
		ids:      make(map[objstream.Object]int),
	}
	b.countShared(root)
	return b.node(root, 0)
}

type treeBuilder struct {
	maxDepth int
	shared   typeutil.Set[objstream.Object]
	ids      map[objstream.Object]int
}

// composite 判断对象是否作为图中的节点参与共享检测；标量总是按值展开。
func composite(o objstream.Object) bool {
	switch o.(type) {
	case *objects.Collection, *objects.Dictionary, *objects.Point, *objects.Rectangle,
		*objects.Form, *objects.UserObject:
		return true
	default:
		return false
	}
}

func (b *treeBuilder) countShared(root objstream.Object) {
	seen := typeutil.NewSet[objstream.Object]()
	stack := []objstream.Object{root}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !composite(o) {
			continue
		}
		if !seen.TryInsert(o) {
			b.shared.Insert(o)
			continue
		}
		for _, rec := range objects.Fields(o) {
			if child := rec.Object(); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

func (b *treeBuilder) record(rec objstream.Record, depth int) any {
	if rec.IsReference() {
		return map[string]any{KeyRef: rec.Index()}
	}
	return b.node(rec.Object(), depth)
}

func (b *treeBuilder) records(recs []objstream.Record, depth int) []any {
	out := make([]any, len(recs))
	for i, rec := range recs {
		out[i] = b.record(rec, depth)
	}
	return out
}

func (b *treeBuilder) node(o objstream.Object, depth int) any {
	if o == nil {
		return nil
	}
	if !composite(o) {
		return scalar(o)
	}

	if b.shared.Contain(o) {
		if id, ok := b.ids[o]; ok {
			return map[string]any{KeyRef: id}
		}
	}
	m := map[string]any{KeyClass: className(o)}
	if b.shared.Contain(o) {
		id := len(b.ids) + 1
		b.ids[o] = id
		m[KeyID] = id
	}
	if b.maxDepth > 0 && depth >= b.maxDepth {
		m[KeyTruncated] = true
		return m
	}

	next := depth + 1
	switch v := o.(type) {
	case *objects.Collection:
		m["items"] = b.records(v.Elements, next)
	case *objects.Dictionary:
		entries := make([]any, len(v.Entries))
		for i, e := range v.Entries {
			entries[i] = map[string]any{
				"key":   b.record(e.Key, next),
				"value": b.record(e.Value, next),
			}
		}
		m["entries"] = entries
	case *objects.Point:
		m["x"] = b.record(v.X, next)
		m["y"] = b.record(v.Y, next)
	case *objects.Rectangle:
		m["origin"] = b.records(v.Fields[:2], next)
		m["corner"] = b.records(v.Fields[2:], next)
	case *objects.Form:
		for _, name := range []string{"width", "height", "depth", "offset", "bits", "colors"} {
			if rec, ok := v.Field(name); ok {
				m[name] = b.record(rec, next)
			}
		}
	case *objects.UserObject:
		m["version"] = v.Version
		fields := make(map[string]any, len(v.Fields))
		for i, rec := range v.Fields {
			name := v.FieldName(i)
			if name == "" {
				name = "field" + strconv.Itoa(i)
			}
			fields[name] = b.record(rec, next)
		}
		m["fields"] = fields
	}
	return m
}

func className(o objstream.Object) string {
	if u, ok := o.(*objects.UserObject); ok && u.Name() != "" {
		return u.Name()
	}
	if t, ok := o.(objstream.Tagged); ok {
		return objects.ClassName(t.ClassTag())
	}
	return "Object"
}

// scalar 展开标量对象；大块二进制只导出长度。
func scalar(o objstream.Object) any {
	switch v := o.(type) {
	case *objects.Constant:
		return v.Value()
	case *objects.SmallInteger:
		return v.Value
	case *objects.LargeInteger:
		return v.Value
	case *objects.Float:
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return strconv.FormatFloat(v.Value, 'g', -1, 64)
		}
		return v.Value
	case *objects.String:
		return v.Value
	case *objects.UTF8:
		return v.Value
	case *objects.ByteArray:
		return v.Value
	case *objects.SoundBuffer:
		return map[string]any{KeyClass: "SoundBuffer", "samples": len(v.Samples)}
	case *objects.Bitmap:
		return map[string]any{KeyClass: "Bitmap", "words": len(v.Words)}
	case *objects.Color:
		c := v.NRGBA()
		return map[string]any{KeyClass: className(v), "r": c.R, "g": c.G, "b": c.B, "a": c.A}
	default:
		return map[string]any{KeyClass: className(o)}
	}
}
