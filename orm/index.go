package orm

import (
	"bytes"
	"sort"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// Indexer returns the value a model is indexed under. A nil value leaves
// the model out of the index.
type Indexer func(Model) ([]byte, error)

// index maps a value to the primary keys of the models indexed under it.
// All keys of one value are kept under a single database key: the key
// itself for a unique index, a refSet otherwise. It suits the small
// collections of a stake or claim list, not unbounded ones.
type index struct {
	name    string
	prefix  []byte
	unique  bool
	indexer Indexer
	// model turns a primary key into the database key of the model.
	model func([]byte) []byte
}

var _ delphi.QueryHandler = (*index)(nil)

func newIndex(bucket, name string, indexer Indexer, unique bool, model func([]byte) []byte) *index {
	return &index{
		name:    name,
		prefix:  []byte("_i." + bucket + "_" + name + ":"),
		unique:  unique,
		indexer: indexer,
		model:   model,
	}
}

func (i *index) key(value []byte) []byte {
	k := make([]byte, 0, len(i.prefix)+len(value))
	return append(append(k, i.prefix...), value...)
}

func (i *index) valueOf(m Model) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	v, err := i.indexer(m)
	return v, errors.Wrapf(err, "index %s", i.name)
}

// Update moves pk from the value of prev to the value of next. A nil prev
// is an insert, a nil next a delete.
func (i *index) Update(db delphi.KVStore, pk []byte, prev, next Model) error {
	if prev == nil && next == nil {
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil model")
	}
	from, err := i.valueOf(prev)
	if err != nil {
		return err
	}
	to, err := i.valueOf(next)
	if err != nil {
		return err
	}
	if prev != nil && next != nil && bytes.Equal(from, to) {
		return nil
	}
	if err := i.remove(db, from, pk); err != nil {
		return err
	}
	return i.add(db, to, pk)
}

// Check fails with ErrDuplicate if next cannot be stored under pk without
// breaking the uniqueness of the index.
func (i *index) Check(db delphi.ReadOnlyKVStore, pk []byte, next Model) error {
	if !i.unique || next == nil {
		return nil
	}
	v, err := i.valueOf(next)
	if err != nil || len(v) == 0 {
		return err
	}
	owner, err := i.get(db, v)
	if err != nil {
		return err
	}
	if owner != nil && !bytes.Equal(owner, pk) {
		return errors.Wrap(errors.ErrDuplicate, i.name)
	}
	return nil
}

// Keys returns the primary keys indexed under value.
func (i *index) Keys(db delphi.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	raw, err := i.get(db, value)
	if err != nil || raw == nil {
		return nil, err
	}
	if i.unique {
		return [][]byte{raw}, nil
	}
	var refs refSet
	if err := refs.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "index %s", i.name)
	}
	return refs.Refs, nil
}

// Query returns the models indexed under the value given as data.
func (i *index) Query(db delphi.ReadOnlyKVStore, mod string, data []byte) ([]delphi.Model, error) {
	if mod != delphi.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
	pks, err := i.Keys(db, data)
	if err != nil {
		return nil, err
	}
	res := make([]delphi.Model, 0, len(pks))
	for _, pk := range pks {
		k := i.model(pk)
		v, err := db.Get(k)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		res = append(res, delphi.Pair(k, v))
	}
	return res, nil
}

func (i *index) get(db delphi.ReadOnlyKVStore, value []byte) ([]byte, error) {
	raw, err := db.Get(i.key(value))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return raw, nil
}

func (i *index) add(db delphi.KVStore, value, pk []byte) error {
	if len(value) == 0 {
		return nil
	}
	raw, err := i.get(db, value)
	if err != nil {
		return err
	}
	if i.unique {
		if raw != nil {
			return errors.Wrap(errors.ErrDuplicate, i.name)
		}
		return db.Set(i.key(value), pk)
	}
	var refs refSet
	if raw != nil {
		if err := refs.Unmarshal(raw); err != nil {
			return err
		}
	}
	if !refs.add(pk) {
		return errors.Wrap(errors.ErrDuplicate, "ref already in set")
	}
	return i.save(db, value, &refs)
}

func (i *index) remove(db delphi.KVStore, value, pk []byte) error {
	if len(value) == 0 {
		return nil
	}
	raw, err := i.get(db, value)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrap(errors.ErrNotFound, "cannot remove index from nothing")
	}
	if i.unique {
		if !bytes.Equal(raw, pk) {
			return errors.Wrap(errors.ErrNotFound, "cannot remove index from invalid object")
		}
		return db.Delete(i.key(value))
	}
	var refs refSet
	if err := refs.Unmarshal(raw); err != nil {
		return err
	}
	if !refs.remove(pk) {
		return errors.Wrap(errors.ErrNotFound, "ref not in set")
	}
	if len(refs.Refs) == 0 {
		return db.Delete(i.key(value))
	}
	return i.save(db, value, &refs)
}

func (i *index) save(db delphi.KVStore, value []byte, refs *refSet) error {
	raw, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(i.key(value), raw)
}

// refSet is a sorted set of primary keys.
type refSet struct {
	Refs [][]byte `json:"refs"`
}

func (s *refSet) Marshal() ([]byte, error)   { return delphi.Marshal(s) }
func (s *refSet) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, s) }

// search returns where ref is, or where it belongs.
func (s *refSet) search(ref []byte) (int, bool) {
	n := sort.Search(len(s.Refs), func(i int) bool {
		return bytes.Compare(s.Refs[i], ref) >= 0
	})
	return n, n < len(s.Refs) && bytes.Equal(s.Refs[n], ref)
}

// add reports false if ref was already in the set.
func (s *refSet) add(ref []byte) bool {
	n, found := s.search(ref)
	if found {
		return false
	}
	s.Refs = append(s.Refs, nil)
	copy(s.Refs[n+1:], s.Refs[n:])
	s.Refs[n] = ref
	return true
}

// remove reports false if ref was not in the set.
func (s *refSet) remove(ref []byte) bool {
	n, found := s.search(ref)
	if found {
		s.Refs = append(s.Refs[:n], s.Refs[n+1:]...)
	}
	return found
}
