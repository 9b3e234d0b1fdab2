package registry

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

const optKey = "registry"

// GenesisListing declares a listed arbiter in the genesis file.
type GenesisListing struct {
	Address delphi.Address `json:"address"`
	Name    string         `json:"name"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ delphi.Initializer = Initializer{}

// FromGenesis stores every listing declared in the "registry" section.
func (Initializer) FromGenesis(opts delphi.Options, db delphi.KVStore) error {
	var listings []GenesisListing
	if err := opts.ReadOptions(optKey, &listings); err != nil {
		return err
	}
	b := NewBucket()
	for i, l := range listings {
		if err := l.Address.Validate(); err != nil {
			return errors.Wrapf(err, "listing %d", i)
		}
		if err := b.Has(db, l.Address); err == nil {
			return errors.Wrapf(errors.ErrDuplicate, "listing %d", i)
		}
		listing := Listing{Metadata: &delphi.Metadata{Schema: 1}, Name: l.Name}
		if _, err := b.Put(db, l.Address, &listing); err != nil {
			return errors.Wrapf(err, "listing %d", i)
		}
	}
	return nil
}
