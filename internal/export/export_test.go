package export

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/scratchfile-go/internal/objects"
	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

func obj(o objstream.Object) objstream.Record {
	return objstream.ObjectRecord(o)
}

func TestTreeScalars(t *testing.T) {
	assert.Nil(t, Tree(nil, 0))
	assert.Nil(t, Tree(objects.Nil, 0))
	assert.Equal(t, true, Tree(objects.True, 0))
	assert.Equal(t, int32(7), Tree(&objects.SmallInteger{Value: 7}, 0))
	assert.Equal(t, "+Inf", Tree(&objects.Float{Value: math.Inf(1)}, 0))
	assert.Equal(t, 0, big.NewInt(12).Cmp(Tree(&objects.LargeInteger{Value: big.NewInt(12)}, 0).(*big.Int)))
	assert.Equal(t, map[string]any{KeyClass: "Bitmap", "words": 2}, Tree(&objects.Bitmap{Words: []uint32{1, 2}}, 0))
}

func TestTreeSharedAndCycles(t *testing.T) {
	shared := &objects.Point{X: obj(&objects.SmallInteger{Value: 1}), Y: obj(&objects.SmallInteger{Value: 2})}
	root := &objects.Collection{}
	root.Elements = []objstream.Record{obj(shared), obj(shared), obj(root), obj(objects.Nil), obj(objects.Nil)}

	tree := Tree(root, 0).(map[string]any)
	assert.Equal(t, 1, tree[KeyID])

	items := tree["items"].([]any)
	require.Len(t, items, 5)
	first := items[0].(map[string]any)
	assert.Equal(t, 2, first[KeyID])
	assert.Equal(t, int32(1), first["x"])
	assert.Equal(t, map[string]any{KeyRef: 2}, items[1])
	assert.Equal(t, map[string]any{KeyRef: 1}, items[2])
	assert.Nil(t, items[3])
	assert.Nil(t, items[4])
}

func TestTreeUnsharedHasNoID(t *testing.T) {
	root := &objects.Collection{Elements: []objstream.Record{obj(&objects.Collection{})}}
	tree := Tree(root, 0).(map[string]any)
	_, ok := tree[KeyID]
	assert.False(t, ok)
	_, ok = tree["items"].([]any)[0].(map[string]any)[KeyID]
	assert.False(t, ok)
}

func TestTreeDepthLimit(t *testing.T) {
	inner := &objects.Collection{Elements: []objstream.Record{obj(&objects.SmallInteger{Value: 1})}}
	root := &objects.Collection{Elements: []objstream.Record{obj(inner)}}

	tree := Tree(root, 1).(map[string]any)
	child := tree["items"].([]any)[0].(map[string]any)
	assert.Equal(t, true, child[KeyTruncated])
	_, ok := child["items"]
	assert.False(t, ok)
}

func TestTreeUnresolvedReference(t *testing.T) {
	root := &objects.Collection{Elements: []objstream.Record{objstream.ReferenceRecord(4)}}
	tree := Tree(root, 0).(map[string]any)
	assert.Equal(t, map[string]any{KeyRef: uint32(4)}, tree["items"].([]any)[0])
}

func TestSerializers(t *testing.T) {
	dict := &objects.Dictionary{Entries: []objects.Entry{
		{Key: obj(&objects.String{Value: "name"}), Value: obj(&objects.String{Value: "Stage"})},
	}}
	tree := Tree(dict, 0)

	for _, format := range []string{"json", "cbor"} {
		s, err := NewSerializer(format)
		require.NoError(t, err)
		assert.Equal(t, format, s.Name())

		data, err := s.Marshal(tree)
		require.NoError(t, err)

		var back map[string]any
		require.NoError(t, s.Unmarshal(data, &back))
		entries := back["entries"].([]any)
		require.Len(t, entries, 1)
		entry := entries[0].(map[string]any)
		assert.Equal(t, "name", entry["key"])
		assert.Equal(t, "Stage", entry["value"])
	}

	_, err := NewSerializer("xml")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestCBORDeterministic(t *testing.T) {
	s, err := NewCBORSerializer()
	require.NoError(t, err)
	v := map[string]any{"b": 1, "a": 2, "c": []any{"x", nil}}
	first, err := s.Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTreeCustomUserClass(t *testing.T) {
	r := objstream.NewRegistry()
	require.NoError(t, objects.Bind(r))
	require.NoError(t, r.Register(150, func() objstream.Object { return &objects.UserObject{} }))
	r.Seal()
	d, err := objstream.NewDecoder(r)
	require.NoError(t, err)
	rec, err := objstream.NewSession(context.Background(), d, []byte{150, 1, 1, byte(objects.TagTrue)}).DecodeOne()
	require.NoError(t, err)

	var tree any
	require.NotPanics(t, func() { tree = Tree(rec.Object(), 0) })
	m := tree.(map[string]any)
	assert.Equal(t, "Class150", m[KeyClass])
	assert.Equal(t, map[string]any{"field0": true}, m["fields"])

	assert.Equal(t, map[string]any{KeyClass: "Class0", "version": uint8(0), "fields": map[string]any{}},
		Tree(&objects.UserObject{}, 0))
}
