package objects

import (
	"github.com/lk2023060901/scratchfile-go/internal/objstream"
)

// ClassDescriptor 描述一个用户类：标签、类名与按位置排列的字段名。
// 字段名仅用于诊断和导出，字段个数以流中记录的为准。
type ClassDescriptor struct {
	Tag    objstream.ClassTag
	Name   string
	Fields []string
	// BYOB 表示该类只出现在 BYOB 工程中。
	BYOB bool
}

var morphFields = []string{"bounds", "owner", "submorphs", "color", "flags", "properties"}

var scriptableFields = append(append([]string(nil), morphFields...),
	"objName", "vars", "blocksBin", "isClone", "media", "costume")

var userClasses = []ClassDescriptor{
	{Tag: 100, Name: "Morph", Fields: morphFields},
	{Tag: 101, Name: "BorderedMorph", Fields: append(append([]string(nil), morphFields...), "borderWidth", "borderColor")},
	{Tag: 102, Name: "RectangleMorph"},
	{Tag: 103, Name: "EllipseMorph"},
	{Tag: 104, Name: "AlignmentMorph"},
	{Tag: 105, Name: "StringMorph"},
	{Tag: 106, Name: "UpdatingStringMorph"},
	{Tag: 107, Name: "SimpleSliderMorph"},
	{Tag: 108, Name: "SimpleButtonMorph"},
	{Tag: 109, Name: "SampledSound", Fields: []string{"envelopes", "scaledVol", "initialCount", "samples", "originalSamplingRate", "samplesSize", "scaledIncrement", "scaledInitialIndex"}},
	{Tag: 110, Name: "ImageMorph"},
	{Tag: 111, Name: "SketchMorph"},
	{Tag: 123, Name: "SensorBoardMorph"},
	{Tag: 124, Name: "ScratchSpriteMorph", Fields: append(append([]string(nil), scriptableFields...),
		"visibility", "scalePoint", "rotationDegrees", "rotationStyle", "volume", "tempoBPM", "draggable", "sceneStates", "lists")},
	{Tag: 125, Name: "ScratchStageMorph", Fields: append(append([]string(nil), scriptableFields...),
		"zoom", "hPan", "vPan", "obsoleteSavedState", "sprites", "volume", "tempoBPM", "sceneStates", "lists")},
	{Tag: 155, Name: "WatcherMorph"},
	{Tag: 162, Name: "ImageMedia", Fields: []string{"mediaName", "form", "rotationCenter", "textBox", "jpegBytes", "compositeForm"}},
	{Tag: 163, Name: "MovieMedia"},
	{Tag: 164, Name: "SoundMedia", Fields: []string{"mediaName", "originalSound", "volume", "balance", "compressedSampleRate", "compressedBitsPerSample", "compressedData"}},
	{Tag: 165, Name: "KeyEventRecord"},
	{Tag: 173, Name: "WatcherReadoutFrameMorph"},
	{Tag: 174, Name: "WatcherSliderMorph"},
	{Tag: 175, Name: "ScratchListMorph", Fields: append(append([]string(nil), morphFields...), "borderWidth", "borderColor", "listName", "cellMorphs", "target")},
	{Tag: 176, Name: "ScrollingStringMorph"},
	{Tag: 200, Name: "VariableFrame", Fields: []string{"vars"}, BYOB: true},
	{Tag: 201, Name: "CustomBlockDefinition", BYOB: true},
}

var userClassByTag = func() map[objstream.ClassTag]*ClassDescriptor {
	m := make(map[objstream.ClassTag]*ClassDescriptor, len(userClasses))
	for i := range userClasses {
		m[userClasses[i].Tag] = &userClasses[i]
	}
	return m
}()

// LookupClass 返回已知用户类的描述。
func LookupClass(tag objstream.ClassTag) (*ClassDescriptor, bool) {
	d, ok := userClassByTag[tag]
	return d, ok
}

// UserClasses 返回所有已知用户类的描述，按标签升序。
func UserClasses() []ClassDescriptor {
	return append([]ClassDescriptor(nil), userClasses...)
}

// UserObject 是所有用户类（标签 >= 100）的通用表示：u8 版本、u8 字段数，之后是字段记录。
type UserObject struct {
	Class   *ClassDescriptor
	Version uint8
	Fields  []objstream.Record
}

// Populate 读取用户类记录。工厂预置的描述优先；未知标签使用只有类名的占位描述。
func (u *UserObject) Populate(tag objstream.ClassTag, cur *objstream.Cursor, s *objstream.Session) error {
	switch d, ok := userClassByTag[tag]; {
	case u.Class != nil && u.Class.Tag == tag:
	case ok:
		u.Class = d
	default:
		u.Class = &ClassDescriptor{Tag: tag, Name: ClassName(tag)}
	}
	version, err := cur.ReadByte()
	if err != nil {
		return err
	}
	u.Version = version
	n, err := cur.ReadByte()
	if err != nil {
		return err
	}
	u.Fields, err = decodeFields(s, int(n))
	return err
}

func (u *UserObject) Resolve(t *objstream.Table) error {
	return t.ResolveAll(u.Fields)
}

func (u *UserObject) descriptor() *ClassDescriptor {
	if u.Class == nil {
		return &ClassDescriptor{}
	}
	return u.Class
}

func (u *UserObject) ClassTag() objstream.ClassTag {
	return u.descriptor().Tag
}

// Name 返回类名。
func (u *UserObject) Name() string {
	return u.descriptor().Name
}

// FieldName 返回第 i 个字段的名称，没有描述时返回空串。
func (u *UserObject) FieldName(i int) string {
	if fields := u.descriptor().Fields; i < len(fields) {
		return fields[i]
	}
	return ""
}

// Field 按字段名查找字段。
func (u *UserObject) Field(name string) (objstream.Record, bool) {
	for i, n := range u.descriptor().Fields {
		if n == name && i < len(u.Fields) {
			return u.Fields[i], true
		}
	}
	return objstream.Record{}, false
}

// FieldObject 按字段名返回已解析的对象，字段不存在或仍是引用时返回 nil。
func (u *UserObject) FieldObject(name string) objstream.Object {
	rec, ok := u.Field(name)
	if !ok {
		return nil
	}
	return rec.Object()
}
