package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// ModelBucket is implemented by buckets that operates on Models rather than
// raw bytes.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db delphi.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists.
	// It returns ErrNotFound if no entity can be found.
	Has(db delphi.ReadOnlyKVStore, key []byte) error

	// ByIndex returns all objects that secondary index with given name and
	// given key. Main index is always unique but secondary indexes can
	// return more than one value for the same key.
	// All matching entities are appended to given destination slice. If no
	// result was found, no error is returned and destination slice is not
	// modified.
	ByIndex(db delphi.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) (keys [][]byte, err error)

	// Put saves given model in the database. Before inserting into
	// database, model is validated using its Validate method.
	// If the key is nil or zero length then a sequence generator is used
	// to create a unique key value.
	// Using a key that already exists in the database cause the value to
	// be overwritten.
	Put(db delphi.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db delphi.KVStore, key []byte) error

	// Register registers this buckets content to be accessible via query
	// requests under the given name.
	Register(name string, r delphi.QueryRouter)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("index %q declared twice", name))
		}
		mb.indexes[name] = newIndex(mb.name, name, indexer, unique, mb.dbKey)
	}
}

// WithIDSequence configures the bucket to use the given sequence instance for
// generating ID.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = &s
	}
}

// NewModelBucket returns a ModelBucket instance. The name must be a
// lowercase string of 3 to 10 characters. The model is used only to learn
// the type of the stored entities.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket name: %q", name))
	}
	tp := reflect.TypeOf(m)
	if tp.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("model must be a pointer, got %T", m))
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   tp.Elem(),
		indexes: make(map[string]*index),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	idSeq   *Sequence
	indexes map[string]*index
}

var _ ModelBucket = (*modelBucket)(nil)

// dbKey is the full key we store in the db, including prefix.
func (mb *modelBucket) dbKey(key []byte) []byte {
	l := len(mb.prefix)
	out := make([]byte, l+len(key))
	copy(out, mb.prefix)
	copy(out[l:], key)
	return out
}

func (mb *modelBucket) newModel() Model {
	return reflect.New(mb.model).Interface().(Model)
}

func (mb *modelBucket) One(db delphi.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != reflect.PtrTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", mb.model, dest)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot load %T", dest)
	}
	return nil
}

func (mb *modelBucket) Has(db delphi.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

func (mb *modelBucket) ByIndex(db delphi.ReadOnlyKVStore, indexName string, key []byte, destination ModelSlicePtr) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "name %q", indexName)
	}
	refs, err := idx.Keys(db, key)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "destination must be a pointer to slice, got %T", destination)
	}
	slice := dest.Elem()
	byPtr := slice.Type().Elem() == reflect.PtrTo(mb.model)
	if !byPtr && slice.Type().Elem() != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "%s cannot be appended to %T", mb.model, destination)
	}

	for _, ref := range refs {
		m := mb.newModel()
		if err := mb.One(db, ref, m); err != nil {
			return nil, errors.Wrapf(err, "index %q reference %x", indexName, ref)
		}
		val := reflect.ValueOf(m)
		if !byPtr {
			val = val.Elem()
		}
		slice = reflect.Append(slice, val)
	}
	dest.Elem().Set(slice)
	return refs, nil
}

func (mb *modelBucket) Put(db delphi.KVStore, key []byte, m Model) ([]byte, error) {
	if reflect.TypeOf(m) != reflect.PtrTo(mb.model) {
		return nil, errors.Wrapf(errors.ErrType, "cannot store %T in %q bucket", m, mb.name)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		if mb.idSeq == nil {
			return nil, errors.Wrap(errors.ErrHuman, "no key and no sequence")
		}
		next, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
		key = next
	}

	if len(mb.indexes) > 0 {
		prev, err := mb.load(db, key)
		if err != nil {
			return nil, err
		}
		// Unique constraints are verified before any index is written.
		for _, idx := range mb.indexes {
			if err := idx.Check(db, key, m); err != nil {
				return nil, err
			}
		}
		for _, idx := range mb.indexes {
			if err := idx.Update(db, key, prev, m); err != nil {
				return nil, err
			}
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize model")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return key, nil
}

// load returns the model stored under given key or nil if there is none.
func (mb *modelBucket) load(db delphi.ReadOnlyKVStore, key []byte) (Model, error) {
	m := mb.newModel()
	switch err := mb.One(db, key, m); {
	case err == nil:
		return m, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

func (mb *modelBucket) Delete(db delphi.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, nil); err != nil {
			return err
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) Register(name string, r delphi.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	r.Register(root, mb)
	for iname, idx := range mb.indexes {
		r.Register(root+"/"+iname, idx)
	}
}

// Query returns the model stored under the key given as data.
func (mb *modelBucket) Query(db delphi.ReadOnlyKVStore, mod string, data []byte) ([]delphi.Model, error) {
	if mod != delphi.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
	key := mb.dbKey(data)
	value, err := db.Get(key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	// return nothing on miss
	if value == nil {
		return nil, nil
	}
	return []delphi.Model{delphi.Pair(key, value)}, nil
}
