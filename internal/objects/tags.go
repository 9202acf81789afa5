package objects

import (
	"fmt"

	"github.com/lk2023060901/scratchfile-go/internal/objstream"
)

// 固定格式对象的类标签。
const (
	TagNil   objstream.ClassTag = 1
	TagTrue  objstream.ClassTag = 2
	TagFalse objstream.ClassTag = 3

	TagSmallInteger         objstream.ClassTag = 4
	TagSmallInteger16       objstream.ClassTag = 5
	TagLargePositiveInteger objstream.ClassTag = 6
	TagLargeNegativeInteger objstream.ClassTag = 7
	TagFloat                objstream.ClassTag = 8

	TagString      objstream.ClassTag = 9
	TagSymbol      objstream.ClassTag = 10
	TagByteArray   objstream.ClassTag = 11
	TagSoundBuffer objstream.ClassTag = 12
	TagBitmap      objstream.ClassTag = 13
	TagUTF8        objstream.ClassTag = 14

	TagArray              objstream.ClassTag = 20
	TagOrderedCollection  objstream.ClassTag = 21
	TagSet                objstream.ClassTag = 22
	TagIdentitySet        objstream.ClassTag = 23
	TagDictionary         objstream.ClassTag = 24
	TagIdentityDictionary objstream.ClassTag = 25

	TagColor            objstream.ClassTag = 30
	TagTranslucentColor objstream.ClassTag = 31
	TagPoint            objstream.ClassTag = 32
	TagRectangle        objstream.ClassTag = 33
	TagForm             objstream.ClassTag = 34
	TagColorForm        objstream.ClassTag = 35
)

// FirstUserTag 是用户类的最小标签，之后的记录带版本号与字段数。
const FirstUserTag objstream.ClassTag = 100

var fixedNames = map[objstream.ClassTag]string{
	TagNil:                  "UndefinedObject",
	TagTrue:                 "True",
	TagFalse:                "False",
	TagSmallInteger:         "SmallInteger",
	TagSmallInteger16:       "SmallInteger16",
	TagLargePositiveInteger: "LargePositiveInteger",
	TagLargeNegativeInteger: "LargeNegativeInteger",
	TagFloat:                "Float",
	TagString:               "String",
	TagSymbol:               "Symbol",
	TagByteArray:            "ByteArray",
	TagSoundBuffer:          "SoundBuffer",
	TagBitmap:               "Bitmap",
	TagUTF8:                 "UTF8",
	TagArray:                "Array",
	TagOrderedCollection:    "OrderedCollection",
	TagSet:                  "Set",
	TagIdentitySet:          "IdentitySet",
	TagDictionary:           "Dictionary",
	TagIdentityDictionary:   "IdentityDictionary",
	TagColor:                "Color",
	TagTranslucentColor:     "TranslucentColor",
	TagPoint:                "Point",
	TagRectangle:            "Rectangle",
	TagForm:                 "Form",
	TagColorForm:            "ColorForm",
}

// ClassName 返回标签对应的 Squeak 类名，未知标签返回 "Class<n>"。
func ClassName(tag objstream.ClassTag) string {
	if name, ok := fixedNames[tag]; ok {
		return name
	}
	if d, ok := LookupClass(tag); ok {
		return d.Name
	}
	if tag == objstream.ReferenceTag {
		return "Reference"
	}
	return fmt.Sprintf("Class%d", tag)
}
