package store

import (
	"bytes"

	"github.com/google/btree"
)

const btreeDegree = 16

// MemStore returns an empty store kept in memory only.
func MemStore() CacheableKVStore {
	return NewCache(nothing{})
}

// NewCache returns a scratch-pad over parent. Reads see the changes made
// to the cache first. Write applies the changes to parent in key order,
// Discard drops them.
func NewCache(parent KVStore) KVCacheWrap {
	return &cache{parent: parent, changes: btree.New(btreeDegree)}
}

type cache struct {
	parent  KVStore
	changes *btree.BTree
}

var _ KVCacheWrap = (*cache)(nil)

// change is a pending write. A nil value marks a deleted key.
type change struct {
	key   []byte
	value []byte
}

func (c *change) Less(than btree.Item) bool {
	return bytes.Compare(c.key, than.(*change).key) < 0
}

// lookup returns the pending change of key, if any.
func (c *cache) lookup(key []byte) (*change, bool) {
	item := c.changes.Get(&change{key: key})
	if item == nil {
		return nil, false
	}
	return item.(*change), true
}

func (c *cache) Get(key []byte) ([]byte, error) {
	if ch, ok := c.lookup(key); ok {
		return ch.value, nil
	}
	return c.parent.Get(key)
}

func (c *cache) Has(key []byte) (bool, error) {
	if ch, ok := c.lookup(key); ok {
		return ch.value != nil, nil
	}
	return c.parent.Has(key)
}

func (c *cache) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	c.changes.ReplaceOrInsert(&change{key: key, value: value})
	return nil
}

func (c *cache) Delete(key []byte) error {
	c.changes.ReplaceOrInsert(&change{key: key})
	return nil
}

func (c *cache) NewBatch() Batch {
	return NewBatch(c)
}

func (c *cache) CacheWrap() KVCacheWrap {
	return NewCache(c)
}

func (c *cache) Write() error {
	var err error
	c.changes.Ascend(func(item btree.Item) bool {
		ch := item.(*change)
		if ch.value == nil {
			err = c.parent.Delete(ch.key)
		} else {
			err = c.parent.Set(ch.key, ch.value)
		}
		return err == nil
	})
	c.Discard()
	return err
}

func (c *cache) Discard() {
	c.changes = btree.New(btreeDegree)
}

// nothing is a store that holds no data and forgets every write.
type nothing struct{}

func (nothing) Get([]byte) ([]byte, error) { return nil, nil }
func (nothing) Has([]byte) (bool, error)   { return false, nil }
func (nothing) Set(_, _ []byte) error      { return nil }
func (nothing) Delete([]byte) error        { return nil }
func (n nothing) NewBatch() Batch          { return NewBatch(n) }
