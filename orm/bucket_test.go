package orm

import (
	"testing"

	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multiRefFromStrings is a test helper to build a stored value.
func multiRefFromStrings(t testing.TB, strs ...string) *MultiRef {
	t.Helper()
	refs := make([][]byte, len(strs))
	for i, s := range strs {
		refs[i] = []byte(s)
	}
	m, err := NewMultiRef(refs...)
	require.NoError(t, err)
	return m
}

// first indexes an object by its first reference.
func first(obj Object) ([]byte, error) {
	m, ok := obj.Value().(*MultiRef)
	if !ok || len(m.Refs) == 0 {
		return nil, nil
	}
	return m.Refs[0], nil
}

func TestBucketSaveGet(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("refs", NewSimpleObj(nil, new(MultiRef)))

	val := multiRefFromStrings(t, "chad", "dave")
	obj := NewSimpleObj([]byte("key-1"), val)
	require.NoError(t, b.Save(db, obj))

	got, err := b.Get(db, []byte("key-1"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("key-1"), got.Key())
	assert.Equal(t, val.Refs, got.Value().(*MultiRef).Refs)

	missing, err := b.Get(db, []byte("unknown"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBucketRejectsInvalid(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("refs", NewSimpleObj(nil, new(MultiRef)))

	// empty value fails the model validation
	obj := NewSimpleObj([]byte("key-1"), new(MultiRef))
	assert.Error(t, b.Save(db, obj))

	// missing key is never valid
	obj = NewSimpleObj(nil, multiRefFromStrings(t, "chad"))
	assert.Error(t, b.Save(db, obj))
}

func TestBucketDelete(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("refs", NewSimpleObj(nil, new(MultiRef)))

	obj := NewSimpleObj([]byte("key-1"), multiRefFromStrings(t, "chad"))
	require.NoError(t, b.Save(db, obj))
	require.NoError(t, b.Delete(db, []byte("key-1")))

	got, err := b.Get(db, []byte("key-1"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBucketIndex(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("refs", NewSimpleObj(nil, new(MultiRef))).
		WithIndex("first", first, false)

	a := NewSimpleObj([]byte("a"), multiRefFromStrings(t, "alpha", "one"))
	c := NewSimpleObj([]byte("c"), multiRefFromStrings(t, "alpha", "two"))
	d := NewSimpleObj([]byte("d"), multiRefFromStrings(t, "delta"))
	require.NoError(t, b.Save(db, a))
	require.NoError(t, b.Save(db, c))
	require.NoError(t, b.Save(db, d))

	objs, err := b.GetIndexed(db, "first", []byte("alpha"))
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, []byte("a"), objs[0].Key())
	assert.Equal(t, []byte("c"), objs[1].Key())

	objs, err = b.GetIndexed(db, "first", []byte("delta"))
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, []byte("d"), objs[0].Key())

	// reindex on update
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("a"), multiRefFromStrings(t, "delta", "one"))))
	objs, err = b.GetIndexed(db, "first", []byte("alpha"))
	require.NoError(t, err)
	require.Len(t, objs, 1)
	objs, err = b.GetIndexed(db, "first", []byte("delta"))
	require.NoError(t, err)
	require.Len(t, objs, 2)

	// deindex on delete
	require.NoError(t, b.Delete(db, []byte("d")))
	objs, err = b.GetIndexed(db, "first", []byte("delta"))
	require.NoError(t, err)
	require.Len(t, objs, 1)

	// unknown index name
	_, err = b.GetIndexed(db, "missing", []byte("alpha"))
	assert.Error(t, err)
}

func TestBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("refs", NewSimpleObj(nil, new(MultiRef))).
		WithIndex("first", first, false)

	obj := NewSimpleObj([]byte("key-1"), multiRefFromStrings(t, "chad"))
	require.NoError(t, b.Save(db, obj))
	obj2 := NewSimpleObj([]byte("key-2"), multiRefFromStrings(t, "dave"))
	require.NoError(t, b.Save(db, obj2))

	qr := coffer.NewQueryRouter()
	b.Register("refs", qr)

	h := qr.Handler("/refs")
	require.NotNil(t, h)
	models, err := h.Query(db, coffer.KeyQueryMod, []byte("key-1"))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, b.DBKey([]byte("key-1")), models[0].Key)

	models, err = h.Query(db, coffer.PrefixQueryMod, []byte("key"))
	require.NoError(t, err)
	assert.Len(t, models, 2)

	h = qr.Handler("/refs/first")
	require.NotNil(t, h)
	models, err = h.Query(db, coffer.KeyQueryMod, []byte("dave"))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, b.DBKey([]byte("key-2")), models[0].Key)
}
