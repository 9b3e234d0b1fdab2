package store

import (
	"testing"

	"github.com/iov-one/delphi/weavetest/assert"
)

// CheckCacheWrap runs the cache-wrap behaviour every CacheableKVStore must
// show against the stores returned by open. The returned func releases the
// store.
func CheckCacheWrap(t *testing.T, open func() (CacheableKVStore, func())) {
	t.Run("read through", func(t *testing.T) {
		db, done := open()
		defer done()
		checkReadThrough(t, db)
	})
	t.Run("write order", func(t *testing.T) {
		db, done := open()
		defer done()
		checkWriteOrder(t, db)
	})
	t.Run("nested discard", func(t *testing.T) {
		db, done := open()
		defer done()
		checkNestedDiscard(t, db)
	})
}

func expect(t testing.TB, db ReadOnlyKVStore, key string, want string) {
	t.Helper()
	got, err := db.Get([]byte(key))
	assert.Nil(t, err)
	has, err := db.Has([]byte(key))
	assert.Nil(t, err)
	if want == "" {
		assert.Nil(t, got)
		assert.Equal(t, false, has)
		return
	}
	assert.Equal(t, want, string(got))
	assert.Equal(t, true, has)
}

// checkReadThrough stages a settlement in a cache and checks the parent
// only sees it once written.
func checkReadThrough(t *testing.T, db CacheableKVStore) {
	assert.Nil(t, db.Set([]byte("balance:alice"), []byte("100")))
	assert.Nil(t, db.Set([]byte("claim:1"), []byte("open")))

	cache := db.CacheWrap()
	expect(t, cache, "balance:alice", "100")
	assert.Nil(t, cache.Set([]byte("balance:alice"), []byte("40")))
	assert.Nil(t, cache.Set([]byte("balance:bob"), []byte("60")))
	assert.Nil(t, cache.Delete([]byte("claim:1")))

	expect(t, cache, "balance:alice", "40")
	expect(t, cache, "balance:bob", "60")
	expect(t, cache, "claim:1", "")
	expect(t, db, "balance:alice", "100")
	expect(t, db, "balance:bob", "")
	expect(t, db, "claim:1", "open")

	assert.Nil(t, cache.Write())
	expect(t, db, "balance:alice", "40")
	expect(t, db, "balance:bob", "60")
	expect(t, db, "claim:1", "")

	// a written cache starts over and shows the parent again
	assert.Nil(t, db.Set([]byte("balance:bob"), []byte("61")))
	expect(t, cache, "balance:bob", "61")
}

// checkWriteOrder makes sure the last change to a key wins, in caches and
// batches alike.
func checkWriteOrder(t *testing.T, db CacheableKVStore) {
	batch := db.NewBatch()
	assert.Nil(t, batch.Set([]byte("stake:1"), []byte("a")))
	assert.Nil(t, batch.Delete([]byte("stake:1")))
	assert.Nil(t, batch.Set([]byte("stake:2"), []byte("b")))
	assert.Nil(t, batch.Delete([]byte("stake:2")))
	assert.Nil(t, batch.Set([]byte("stake:2"), []byte("c")))
	expect(t, db, "stake:2", "")
	assert.Nil(t, batch.Write())
	expect(t, db, "stake:1", "")
	expect(t, db, "stake:2", "c")

	cache := db.CacheWrap()
	assert.Nil(t, cache.Delete([]byte("stake:2")))
	assert.Nil(t, cache.Set([]byte("stake:2"), []byte("d")))
	assert.Nil(t, cache.Set([]byte("stake:1"), []byte("e")))
	assert.Nil(t, cache.Delete([]byte("stake:1")))
	assert.Nil(t, cache.Write())
	expect(t, db, "stake:1", "")
	expect(t, db, "stake:2", "d")
}

// checkNestedDiscard drops an inner cache and writes the outer one.
func checkNestedDiscard(t *testing.T, db CacheableKVStore) {
	assert.Nil(t, db.Set([]byte("poll:1"), []byte("commit")))

	outer := db.CacheWrap()
	assert.Nil(t, outer.Set([]byte("poll:1"), []byte("reveal")))

	inner := outer.CacheWrap()
	assert.Nil(t, inner.Set([]byte("poll:1"), []byte("resolved")))
	assert.Nil(t, inner.Set([]byte("vote:1"), []byte("2")))
	expect(t, inner, "poll:1", "resolved")
	inner.Discard()

	expect(t, inner, "poll:1", "reveal")
	expect(t, outer, "vote:1", "")

	assert.Nil(t, outer.Write())
	expect(t, db, "poll:1", "reveal")
	expect(t, db, "vote:1", "")
}
