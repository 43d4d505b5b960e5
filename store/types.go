package store

import "github.com/coffernet/coffer"

// Move references for all storage types into this package
// for shorter names everywhere.

type ReadOnlyKVStore = coffer.ReadOnlyKVStore
type KVStore = coffer.KVStore
type SetDeleter = coffer.SetDeleter
type Batch = coffer.Batch
type Iterator = coffer.Iterator
type CacheableKVStore = coffer.CacheableKVStore
type KVCacheWrap = coffer.KVCacheWrap
type CommitKVStore = coffer.CommitKVStore
type CommitID = coffer.CommitID
type Model = coffer.Model
