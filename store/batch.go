package store

// NewBatch returns a batch that queues writes and applies them to out, in
// the order they were made, on Write. The writes are not atomic, so it must
// only be used over stores that are themselves written or discarded as a
// whole, like a cache or the working tree of a commit store.
func NewBatch(out SetDeleter) Batch {
	return &batch{out: out}
}

type batch struct {
	out SetDeleter
	ops []op
}

// op is a queued write. A nil value deletes the key.
type op struct {
	key, value []byte
}

func (b *batch) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	b.ops = append(b.ops, op{key: key, value: value})
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: key})
	return nil
}

func (b *batch) Write() error {
	ops := b.ops
	b.ops = nil
	for _, o := range ops {
		var err error
		if o.value == nil {
			err = b.out.Delete(o.key)
		} else {
			err = b.out.Set(o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
