package store

import "github.com/iov-one/delphi"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = delphi.ReadOnlyKVStore
	SetDeleter       = delphi.SetDeleter
	KVStore          = delphi.KVStore
	Batch            = delphi.Batch
	CacheableKVStore = delphi.CacheableKVStore
	KVCacheWrap      = delphi.KVCacheWrap
	CommitKVStore    = delphi.CommitKVStore
	CommitID         = delphi.CommitID
	Model            = delphi.Model
)

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return delphi.Pair(key, value)
}
