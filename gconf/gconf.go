package gconf

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// ReadStore is the part of a KVStore Load needs.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is the part of a KVStore Save needs.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// ValidMarshaler is a configuration as it is written.
type ValidMarshaler interface {
	Marshal() ([]byte, error)
	Validate() error
}

// Unmarshaler is a configuration as it is read.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Configuration is implemented by the configuration of every extension.
type Configuration interface {
	ValidMarshaler
	Unmarshaler
}

func key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save validates src and writes it as the configuration of pkg.
func Save(db Store, pkg string, src ValidMarshaler) error {
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "validate %s configuration", pkg)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal %s configuration", pkg)
	}
	return db.Set(key(pkg), raw)
}

// Load reads the configuration of pkg into dst. It fails with ErrNotFound
// if none was ever saved.
func Load(db ReadStore, pkg string, dst Unmarshaler) error {
	raw, err := db.Get(key(pkg))
	switch {
	case err != nil:
		return err
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "%s configuration", pkg)
	}
	return errors.Wrapf(dst.Unmarshal(raw), "unmarshal %s configuration", pkg)
}

// InitConfig saves the genesis section conf.<pkg> as the configuration of
// pkg. The section is required.
func InitConfig(db Store, opts delphi.Options, pkg string, conf Configuration) error {
	var sections delphi.Options
	if err := opts.ReadOptions("conf", &sections); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if sections[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := sections.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	return errors.Wrapf(Save(db, pkg, conf), "save configuration for %s", pkg)
}
