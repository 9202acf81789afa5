package objects

import (
	"sync"

	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *objstream.Registry
)

type binding struct {
	tag     objstream.ClassTag
	factory objstream.Factory
}

func fixedBindings() []binding {
	newInt := func() objstream.Object { return &SmallInteger{} }
	newLarge := func() objstream.Object { return &LargeInteger{} }
	newString := func() objstream.Object { return &String{} }
	newCollection := func() objstream.Object { return &Collection{} }
	newDictionary := func() objstream.Object { return &Dictionary{} }
	newColor := func() objstream.Object { return &Color{} }
	newForm := func() objstream.Object { return &Form{} }

	return []binding{
		{TagNil, func() objstream.Object { return Nil }},
		{TagTrue, func() objstream.Object { return True }},
		{TagFalse, func() objstream.Object { return False }},

		{TagSmallInteger, newInt},
		{TagSmallInteger16, newInt},
		{TagLargePositiveInteger, newLarge},
		{TagLargeNegativeInteger, newLarge},
		{TagFloat, func() objstream.Object { return &Float{} }},

		{TagString, newString},
		{TagSymbol, newString},
		{TagByteArray, func() objstream.Object { return &ByteArray{} }},
		{TagSoundBuffer, func() objstream.Object { return &SoundBuffer{} }},
		{TagBitmap, func() objstream.Object { return &Bitmap{} }},
		{TagUTF8, func() objstream.Object { return &UTF8{} }},

		{TagArray, newCollection},
		{TagOrderedCollection, newCollection},
		{TagSet, newCollection},
		{TagIdentitySet, newCollection},
		{TagDictionary, newDictionary},
		{TagIdentityDictionary, newDictionary},

		{TagColor, newColor},
		{TagTranslucentColor, newColor},
		{TagPoint, func() objstream.Object { return &Point{} }},
		{TagRectangle, func() objstream.Object { return &Rectangle{} }},
		{TagForm, newForm},
		{TagColorForm, newForm},
	}
}

// Bind 把所有已知变体绑定到 r 上，但不 Seal，便于宿主追加自定义用户类。
func Bind(r *objstream.Registry) error {
	for _, b := range fixedBindings() {
		if err := r.Register(b.tag, b.factory); err != nil {
			return err
		}
	}
	for _, d := range userClasses {
		if err := r.Register(d.Tag, func() objstream.Object { return &UserObject{} }); err != nil {
			return err
		}
	}
	return nil
}

// RegisterClass 把宿主自定义的用户类与其描述一起绑定到 r 上，d.Tag 必须 >= FirstUserTag。
func RegisterClass(r *objstream.Registry, d ClassDescriptor) error {
	if d.Tag < FirstUserTag {
		return merr.WrapErrParameterInvalidRange(FirstUserTag, 255, d.Tag, "user class tag")
	}
	if d.Name == "" {
		d.Name = ClassName(d.Tag)
	}
	d.Fields = append([]string(nil), d.Fields...)
	return r.Register(d.Tag, func() objstream.Object { return &UserObject{Class: &d} })
}

// NewRegistry 创建一个绑定了所有已知变体并已 Seal 的 Registry。
func NewRegistry() (*objstream.Registry, error) {
	r := objstream.NewRegistry()
	if err := Bind(r); err != nil {
		return nil, err
	}
	r.Seal()
	return r, nil
}

// Default 返回进程级共享的 Registry，首次调用时初始化。
// 静态绑定表冲突属于程序缺陷，直接 panic。
func Default() *objstream.Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry()
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Fields 返回对象直接持有的子记录，字典按键、值交替排列。
func Fields(o objstream.Object) []objstream.Record {
	switch v := o.(type) {
	case *Collection:
		return v.Elements
	case *Dictionary:
		out := make([]objstream.Record, 0, 2*len(v.Entries))
		for _, e := range v.Entries {
			out = append(out, e.Key, e.Value)
		}
		return out
	case *Point:
		return []objstream.Record{v.X, v.Y}
	case *Rectangle:
		return v.Fields[:]
	case *Form:
		return v.Fields
	case *UserObject:
		return v.Fields
	default:
		return nil
	}
}
