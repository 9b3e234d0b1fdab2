package delphi

// ReadOnlyKVStore is what queries read from.
type ReadOnlyKVStore interface {
	// Get is nil for a missing key.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// SetDeleter is the write side shared by stores and batches. Neither
// implementation may modify the key or value slices.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the state handed to every handler.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	NewBatch() Batch
}

// Batch applies all its writes on Write, or none when dropped.
type Batch interface {
	SetDeleter
	Write() error
}

// CacheableKVStore can stage writes in a cache layered over itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap reads through to its parent and keeps writes to itself until
// Write. A failing transaction Discards its cache so the block state is
// left untouched. Caches nest.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// CommitKVStore is the versioned state of the chain on disk.
type CommitKVStore interface {
	// Get reads the last committed version.
	Get(key []byte) ([]byte, error)

	// CacheWrap stages the next version.
	CacheWrap() KVCacheWrap

	Commit() (CommitID, error)

	// LoadLatestVersion falls back to the last complete version after a
	// crash during commit.
	LoadLatestVersion() error

	LatestVersion() (CommitID, error)
}

// CommitID names a committed version by height and merkle root.
type CommitID struct {
	Version int64
	Hash    []byte
}
