package objects

import (
	"context"
	"encoding/binary"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

type ObjectsSuite struct {
	suite.Suite
	decoder *objstream.Decoder
}

func (s *ObjectsSuite) SetupSuite() {
	d, err := objstream.NewDecoder(Default())
	s.Require().NoError(err)
	s.decoder = d
}

func (s *ObjectsSuite) decode(data []byte) (objstream.Object, *objstream.Session) {
	sess := objstream.NewSession(context.Background(), s.decoder, data)
	rec, err := sess.DecodeOne()
	s.Require().NoError(err)
	s.Require().False(rec.IsReference())
	s.Equal(len(data), sess.Cursor().Offset(), "record must consume all of its bytes")
	return rec.Object(), sess
}

func u32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func smallInt(v int32) []byte {
	return cat([]byte{byte(TagSmallInteger)}, u32(uint32(v)))
}

func str(tag objstream.ClassTag, raw string) []byte {
	return cat([]byte{byte(tag)}, u32(uint32(len(raw))), []byte(raw))
}

func ref(i uint32) []byte {
	return []byte{byte(objstream.ReferenceTag), byte(i >> 16), byte(i >> 8), byte(i)}
}

func (s *ObjectsSuite) TestConstants() {
	for tag, want := range map[objstream.ClassTag]*Constant{TagNil: Nil, TagTrue: True, TagFalse: False} {
		obj, _ := s.decode([]byte{byte(tag)})
		s.Same(want, obj)
	}
	s.Equal(true, True.Value())
	s.Nil(Nil.Value())
	s.Equal("false", False.String())
}

func (s *ObjectsSuite) TestSmallIntegers() {
	obj, _ := s.decode([]byte{0x04, 0x00, 0x00, 0x00, 0x2A})
	s.Equal(int32(42), obj.(*SmallInteger).Value)

	obj, _ = s.decode([]byte{0x05, 0xff, 0xfe})
	i := obj.(*SmallInteger)
	s.Equal(int32(-2), i.Value)
	s.Equal(TagSmallInteger16, i.ClassTag())
}

func (s *ObjectsSuite) TestLargeIntegers() {
	// 0x0102030405 小端存储。
	payload := []byte{0x00, 0x05, 0x05, 0x04, 0x03, 0x02, 0x01}
	obj, _ := s.decode(cat([]byte{byte(TagLargePositiveInteger)}, payload))
	s.Equal(0, obj.(*LargeInteger).Value.Cmp(big.NewInt(0x0102030405)))

	obj, _ = s.decode(cat([]byte{byte(TagLargeNegativeInteger)}, payload))
	s.Equal(0, obj.(*LargeInteger).Value.Cmp(big.NewInt(-0x0102030405)))
}

func (s *ObjectsSuite) TestFloat() {
	obj, _ := s.decode(cat([]byte{byte(TagFloat)}, binary.BigEndian.AppendUint64(nil, math.Float64bits(2.5))))
	s.Equal(2.5, obj.(*Float).Value)
}

func (s *ObjectsSuite) TestStrings() {
	// 0x8A 在 MacRoman 中是 "ä"。
	obj, _ := s.decode(str(TagString, "K\x8Ase"))
	s.Equal("Käse", obj.(*String).Value)
	s.False(obj.(*String).IsSymbol())

	obj, _ = s.decode(str(TagSymbol, "costume"))
	s.True(obj.(*String).IsSymbol())

	obj, _ = s.decode(str(TagUTF8, "Käse"))
	s.Equal("Käse", obj.(*UTF8).Value)
}

func (s *ObjectsSuite) TestBuffers() {
	obj, _ := s.decode(cat([]byte{byte(TagByteArray)}, u32(3), []byte{1, 2, 3}))
	s.Equal([]byte{1, 2, 3}, obj.(*ByteArray).Value)

	obj, _ = s.decode(cat([]byte{byte(TagSoundBuffer)}, u32(2), []byte{0x00, 0x01, 0xff, 0xff}))
	s.Equal([]int16{1, -1}, obj.(*SoundBuffer).Samples)

	obj, _ = s.decode(cat([]byte{byte(TagBitmap)}, u32(1), u32(0xdeadbeef)))
	s.Equal([]uint32{0xdeadbeef}, obj.(*Bitmap).Words)
}

func (s *ObjectsSuite) TestHugeLengthIsTruncated() {
	sess := objstream.NewSession(context.Background(), s.decoder, cat([]byte{byte(TagBitmap)}, u32(math.MaxUint32)))
	_, err := sess.DecodeOne()
	s.ErrorIs(err, merr.ErrTruncatedStream)

	sess = objstream.NewSession(context.Background(), s.decoder, cat([]byte{byte(TagArray)}, u32(1000), []byte{0x01}))
	_, err = sess.DecodeOne()
	s.ErrorIs(err, merr.ErrTruncatedStream)
}

func (s *ObjectsSuite) TestCollections() {
	for _, tag := range []objstream.ClassTag{TagArray, TagOrderedCollection, TagSet, TagIdentitySet} {
		obj, _ := s.decode(cat([]byte{byte(tag)}, u32(3), smallInt(1), []byte{byte(TagNil)}, ref(1)))
		c := obj.(*Collection)
		s.Equal(tag, c.ClassTag())
		s.Equal(3, c.Len())
		s.True(c.Elements[2].IsReference())
		s.Len(Fields(c), 3)
	}
}

func (s *ObjectsSuite) TestDictionary() {
	data := cat([]byte{byte(TagDictionary)}, u32(2),
		str(TagSymbol, "name"), str(TagString, "Stage"),
		str(TagSymbol, "count"), smallInt(5))
	obj, _ := s.decode(data)
	d := obj.(*Dictionary)
	s.Equal([]string{"name", "count"}, d.Keys())

	v, ok := d.Get("name")
	s.True(ok)
	name, ok := StringValue(v.Object())
	s.True(ok)
	s.Equal("Stage", name)

	_, ok = d.Get("missing")
	s.False(ok)
	s.Len(Fields(d), 4)
}

func (s *ObjectsSuite) TestColors() {
	packed := uint32(1023)<<20 | uint32(512)<<10 | uint32(0)
	obj, _ := s.decode(cat([]byte{byte(TagColor)}, u32(packed)))
	c := obj.(*Color)
	s.Equal(uint16(1023), c.R)
	s.Equal(uint16(512), c.G)
	s.Equal(uint16(0), c.B)
	s.Equal(uint8(0xff), c.NRGBA().A)
	s.Equal(uint8(0xff), c.NRGBA().R)

	obj, _ = s.decode(cat([]byte{byte(TagTranslucentColor)}, u32(packed), []byte{0x80}))
	s.Equal(uint8(0x80), obj.(*Color).A)
}

func (s *ObjectsSuite) TestDimensions() {
	obj, _ := s.decode(cat([]byte{byte(TagPoint)}, smallInt(3), smallInt(4)))
	p := obj.(*Point)
	s.Equal(int32(3), p.X.Object().(*SmallInteger).Value)
	s.Equal(int32(4), p.Y.Object().(*SmallInteger).Value)

	obj, _ = s.decode(cat([]byte{byte(TagRectangle)}, smallInt(0), smallInt(0), smallInt(480), smallInt(360)))
	r := obj.(*Rectangle)
	s.Equal(int32(480), r.Fields[2].Object().(*SmallInteger).Value)
	s.Len(Fields(r), 4)
}

func (s *ObjectsSuite) TestForms() {
	bits := cat([]byte{byte(TagBitmap)}, u32(0))
	obj, _ := s.decode(cat([]byte{byte(TagForm)}, smallInt(1), smallInt(1), smallInt(32), []byte{byte(TagNil)}, bits))
	f := obj.(*Form)
	s.Len(f.Fields, 5)
	rec, ok := f.Field("bits")
	s.True(ok)
	s.IsType(&Bitmap{}, rec.Object())
	_, ok = f.Field("colors")
	s.False(ok)

	obj, _ = s.decode(cat([]byte{byte(TagColorForm)}, smallInt(1), smallInt(1), smallInt(8), []byte{byte(TagNil)}, bits, ref(1)))
	cf := obj.(*Form)
	s.Equal(TagColorForm, cf.ClassTag())
	rec, ok = cf.Field("colors")
	s.True(ok)
	s.True(rec.IsReference())
}

func (s *ObjectsSuite) TestUserObject() {
	data := cat([]byte{124, 3, 7},
		[]byte{byte(TagNil)}, []byte{byte(TagNil)}, []byte{byte(TagNil)}, []byte{byte(TagNil)}, smallInt(0), []byte{byte(TagNil)},
		str(TagString, "Sprite1"))
	obj, _ := s.decode(data)
	u := obj.(*UserObject)
	s.Equal("ScratchSpriteMorph", u.Name())
	s.Equal(objstream.ClassTag(124), u.ClassTag())
	s.Equal(uint8(3), u.Version)
	s.Equal("objName", u.FieldName(6))
	s.Equal("", u.FieldName(99))

	name, ok := StringValue(u.FieldObject("objName"))
	s.True(ok)
	s.Equal("Sprite1", name)
	s.Nil(u.FieldObject("costume"))
}

func (s *ObjectsSuite) TestUnknownUserClass() {
	sess := objstream.NewSession(context.Background(), s.decoder, []byte{150, 1, 0})
	_, err := sess.DecodeOne()
	s.ErrorIs(err, merr.ErrUnknownClassTag)
	s.Equal(1, sess.Cursor().Offset())
}

func (s *ObjectsSuite) TestFixupAcrossVariants() {
	// [1] Array(ref 2, ref 1)  [2] Point(1, 2)
	data := cat(
		[]byte{byte(TagArray)}, u32(2), ref(2), ref(1),
		[]byte{byte(TagPoint)}, smallInt(1), smallInt(2),
	)
	sess := objstream.NewSession(context.Background(), s.decoder, data)
	s.Require().NoError(sess.ReadTopLevel(2))
	s.Require().NoError(objstream.Fixup(sess.Table()))

	root, err := sess.Table().Root()
	s.Require().NoError(err)
	arr := root.(*Collection)
	s.Same(sess.Table().At(1).Object(), arr.Elements[0].Object())
	s.Same(root, arr.Elements[1].Object())
}

func TestObjects(t *testing.T) {
	suite.Run(t, new(ObjectsSuite))
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.True(t, r.Sealed())
	assert.Equal(t, len(fixedBindings())+len(userClasses), r.Len())

	_, ok := r.Lookup(objstream.ReferenceTag)
	assert.False(t, ok)

	assert.Same(t, Default(), Default())
}

func TestBindTwiceFails(t *testing.T) {
	r := objstream.NewRegistry()
	require.NoError(t, Bind(r))
	assert.ErrorIs(t, Bind(r), merr.ErrDuplicateTag)
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "Dictionary", ClassName(TagDictionary))
	assert.Equal(t, "ScratchStageMorph", ClassName(125))
	assert.Equal(t, "VariableFrame", ClassName(200))
	assert.Equal(t, "Reference", ClassName(objstream.ReferenceTag))
	assert.Equal(t, "Class77", ClassName(77))
}

func TestUserClassTableIsConsistent(t *testing.T) {
	seen := make(map[objstream.ClassTag]bool)
	for _, d := range UserClasses() {
		assert.GreaterOrEqual(t, d.Tag, FirstUserTag)
		assert.NotEqual(t, objstream.ReferenceTag, d.Tag)
		assert.False(t, seen[d.Tag], "duplicate tag %d", d.Tag)
		seen[d.Tag] = true
		_, fixed := fixedNames[d.Tag]
		assert.False(t, fixed)
	}
}

func decodeWith(t *testing.T, r *objstream.Registry, data []byte) objstream.Object {
	d, err := objstream.NewDecoder(r)
	require.NoError(t, err)
	rec, err := objstream.NewSession(context.Background(), d, data).DecodeOne()
	require.NoError(t, err)
	return rec.Object()
}

func TestCustomUserClassWithoutDescriptor(t *testing.T) {
	r := objstream.NewRegistry()
	require.NoError(t, Bind(r))
	require.NoError(t, r.Register(150, func() objstream.Object { return &UserObject{} }))
	r.Seal()

	u := decodeWith(t, r, []byte{150, 1, 1, byte(TagNil)}).(*UserObject)
	require.NotPanics(t, func() { u.ClassTag() })
	assert.Equal(t, objstream.ClassTag(150), u.ClassTag())
	assert.Equal(t, "Class150", u.Name())
	assert.Equal(t, "", u.FieldName(0))
	_, ok := u.Field("anything")
	assert.False(t, ok)
	assert.Len(t, u.Fields, 1)
}

func TestRegisterClass(t *testing.T) {
	r := objstream.NewRegistry()
	require.NoError(t, Bind(r))
	require.NoError(t, RegisterClass(r, ClassDescriptor{Tag: 150, Name: "PenTrailMorph", Fields: []string{"form", "position"}}))
	assert.ErrorIs(t, RegisterClass(r, ClassDescriptor{Tag: 150}), merr.ErrDuplicateTag)
	assert.ErrorIs(t, RegisterClass(r, ClassDescriptor{Tag: 42}), merr.ErrParameterInvalid)
	assert.ErrorIs(t, RegisterClass(r, ClassDescriptor{Tag: 125}), merr.ErrDuplicateTag)
	r.Seal()

	u := decodeWith(t, r, cat([]byte{150, 2, 2, byte(TagNil)}, smallInt(7))).(*UserObject)
	assert.Equal(t, "PenTrailMorph", u.Name())
	assert.Equal(t, uint8(2), u.Version)
	assert.Equal(t, "position", u.FieldName(1))
	assert.Equal(t, int32(7), u.FieldObject("position").(*SmallInteger).Value)
}

func TestZeroUserObjectAccessors(t *testing.T) {
	u := &UserObject{}
	assert.NotPanics(t, func() {
		assert.Equal(t, objstream.ClassTag(0), u.ClassTag())
		assert.Equal(t, "", u.Name())
		assert.Nil(t, u.FieldObject("owner"))
	})
}
