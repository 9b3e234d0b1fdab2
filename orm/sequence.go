package orm

import (
	"encoding/binary"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// Sequence hands out increasing ids, like stake and claim ids. The encoded
// ids sort the same way as the integers, so buckets keyed by them iterate
// in creation order.
type Sequence struct {
	key []byte
}

// NewSequence stores its counter under _s.<bucket>:<name>.
func NewSequence(bucket, name string) Sequence {
	return Sequence{key: []byte("_s." + bucket + ":" + name)}
}

// NextVal advances the counter and returns the new id encoded.
func (s *Sequence) NextVal(db delphi.KVStore) ([]byte, error) {
	n, err := s.NextInt(db)
	if err != nil {
		return nil, err
	}
	return EncodeSequence(n), nil
}

// NextInt advances the counter and returns the new id.
func (s *Sequence) NextInt(db delphi.KVStore) (uint64, error) {
	n, err := s.Latest(db)
	if err != nil {
		return 0, err
	}
	if n == ^uint64(0) {
		return 0, errors.Wrapf(errors.ErrOverflow, "sequence %s", s.key)
	}
	n++
	if err := db.Set(s.key, EncodeSequence(n)); err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return n, nil
}

// Latest is the last id handed out, zero for a fresh sequence.
func (s *Sequence) Latest(db delphi.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.key)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return DecodeSequence(raw), nil
}

// DecodeSequence reads an 8 byte big endian id. Anything else is zero.
func DecodeSequence(raw []byte) uint64 {
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

func EncodeSequence(n uint64) []byte {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], n)
	return raw[:]
}

// ValidateSequence checks that id looks like an encoded sequence value.
func ValidateSequence(id []byte) error {
	switch len(id) {
	case 0:
		return errors.Wrap(errors.ErrEmpty, "missing id")
	case 8:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "id of %d bytes, want 8", len(id))
	}
}
