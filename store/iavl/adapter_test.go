package iavl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitStoreRoundtrip(t *testing.T) {
	db := MockCommitStore()
	require.NoError(t, db.LoadLatestVersion())

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("hello"), []byte("world")))
	require.NoError(t, cache.Write())

	id, err := db.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.NotEmpty(t, id.Hash)

	val, err := db.Get([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), val)

	latest, err := db.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, id.Version, latest.Version)
}

func TestCommitStoreDiscardedCacheLeavesNoTrace(t *testing.T) {
	db := MockCommitStore()
	require.NoError(t, db.LoadLatestVersion())

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("volatile"), []byte("data")))
	cache.Discard()

	has, err := db.Has([]byte("volatile"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCommitStoreIterator(t *testing.T) {
	db := MockCommitStore()
	require.NoError(t, db.LoadLatestVersion())
	require.NoError(t, db.Set([]byte("a"), []byte("1")))
	require.NoError(t, db.Set([]byte("b"), []byte("2")))

	iter, err := db.Iterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ; iter.Valid(); require.NoError(t, iter.Next()) {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}
