package delphi

import (
	"github.com/iov-one/delphi/errors"
)

// Metadata is embedded in every persisted model and every message. Schema
// declares the version of the serialized layout and must be at least 1.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the metadata is missing or declares an
// unknown schema.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be at least 1")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when implementing
// orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
