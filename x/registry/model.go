package registry

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
)

const maxNameLength = 64

// Listing marks an address as a listed arbiter. It is stored under the
// arbiter address.
type Listing struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Name     string           `json:"name"`
}

var _ orm.Model = (*Listing)(nil)

func (l *Listing) Marshal() ([]byte, error)   { return delphi.Marshal(l) }
func (l *Listing) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, l) }

func (l *Listing) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", l.Metadata.Validate())
	if len(l.Name) > maxNameLength {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "cannot be longer than %d", maxNameLength))
	}
	return errs
}

// NewBucket returns a bucket storing listings under the arbiter address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("listing", &Listing{})
}

// Lister answers whether an address belongs to a listed arbiter.
type Lister interface {
	IsListed(db delphi.ReadOnlyKVStore, addr delphi.Address) (bool, error)
}

// Registry is the Lister backed by the listing bucket.
type Registry struct {
	b orm.ModelBucket
}

var _ Lister = Registry{}

// NewRegistry returns a registry using the default bucket.
func NewRegistry() Registry {
	return Registry{b: NewBucket()}
}

// IsListed returns true if the address has a listing.
func (r Registry) IsListed(db delphi.ReadOnlyKVStore, addr delphi.Address) (bool, error) {
	if len(addr) == 0 {
		return false, nil
	}
	switch err := r.b.Has(db, addr); {
	case err == nil:
		return true, nil
	case errors.ErrNotFound.Is(err):
		return false, nil
	default:
		return false, errors.Wrap(err, "listing")
	}
}

// RegisterQuery exposes listings as "/listings".
func RegisterQuery(qr delphi.QueryRouter) {
	NewBucket().Register("listings", qr)
}
