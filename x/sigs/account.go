package sigs

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/crypto"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
)

// BucketName is where the accounts of the signers are kept.
const BucketName = "sigs"

// The largest sequence a JSON client can hold: 2^53 - 1.
const maxSequence = (1 << 53) - 1

// Account is the public key of a signer and the sequence its next
// signature must carry. It is stored under the address of the key.
type Account struct {
	Metadata *delphi.Metadata  `json:"metadata"`
	Pubkey   *crypto.PublicKey `json:"pubkey"`
	Sequence int64             `json:"sequence"`
}

var _ orm.Model = (*Account)(nil)

// NewAccount returns the account of a key that never signed.
func NewAccount(pubkey *crypto.PublicKey) *Account {
	return &Account{Metadata: &delphi.Metadata{Schema: 1}, Pubkey: pubkey}
}

func (a *Account) Marshal() ([]byte, error)   { return delphi.Marshal(a) }
func (a *Account) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, a) }

func (a *Account) Validate() error {
	errs := errors.AppendField(nil, "Metadata", a.Metadata.Validate())
	switch {
	case a.Sequence < 0:
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	case a.Sequence > 0 && a.Pubkey == nil:
		errs = errors.Append(errs, errors.Field("Sequence", ErrInvalidSequence, "needs Pubkey"))
	}
	return errs
}

// use consumes seq. It must be the current sequence of the account.
func (a *Account) use(seq int64) error {
	if seq != a.Sequence {
		return errors.Wrapf(ErrInvalidSequence, "want %d, got %d", a.Sequence, seq)
	}
	return a.bump(1)
}

// bump moves the sequence forward by n.
func (a *Account) bump(n int64) error {
	next := a.Sequence + n
	if next <= a.Sequence || next > maxSequence {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	a.Sequence = next
	return nil
}

// NewBucket returns the bucket of the accounts.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Account{})
}

// loadAccount returns the stored account of pubkey or a new one.
func loadAccount(db delphi.ReadOnlyKVStore, b orm.ModelBucket, pubkey *crypto.PublicKey) (*Account, error) {
	var acc Account
	switch err := b.One(db, pubkey.Address(), &acc); {
	case err == nil:
		return &acc, nil
	case errors.ErrNotFound.Is(err):
		return NewAccount(pubkey), nil
	default:
		return nil, err
	}
}

// RegisterQuery exposes the accounts under "/auth".
func RegisterQuery(qr delphi.QueryRouter) {
	NewBucket().Register("auth", qr)
}
