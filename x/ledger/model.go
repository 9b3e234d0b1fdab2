package ledger

import (
	"regexp"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
)

const (
	maxDecimals = 18
	maxNameLen  = 64
)

// IsTicker returns true if given string is a valid token ticker.
var IsTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,5}$`).MatchString

// Token describes a fungible token known to the ledger. It is stored under
// its ticker.
type Token struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Name     string           `json:"name"`
	Decimals int32            `json:"decimals"`
	// Supply is the total amount of tokens that exist. It grows with
	// issuance and shrinks when tokens are burned.
	Supply uint64 `json:"supply"`
}

var _ orm.Model = (*Token)(nil)

func (t *Token) Marshal() ([]byte, error)   { return delphi.Marshal(t) }
func (t *Token) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, t) }

func (t *Token) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", t.Metadata.Validate())
	if t.Name == "" || len(t.Name) > maxNameLen {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "must be 1 to %d characters", maxNameLen))
	}
	if t.Decimals < 0 || t.Decimals > maxDecimals {
		errs = errors.Append(errs, errors.Field("Decimals", errors.ErrInput, "must be between 0 and %d", maxDecimals))
	}
	return errs
}

// Wallet holds the balance of a single token owned by an address.
type Wallet struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Balance  uint64           `json:"balance"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Marshal() ([]byte, error)   { return delphi.Marshal(w) }
func (w *Wallet) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, w) }

func (w *Wallet) Validate() error {
	return errors.Field("Metadata", w.Metadata.Validate(), "invalid")
}

// Allowance is the amount of tokens that a spender may still move out of
// the owner's wallet.
type Allowance struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Amount   uint64           `json:"amount"`
}

var _ orm.Model = (*Allowance)(nil)

func (a *Allowance) Marshal() ([]byte, error)   { return delphi.Marshal(a) }
func (a *Allowance) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, a) }

func (a *Allowance) Validate() error {
	return errors.Field("Metadata", a.Metadata.Validate(), "invalid")
}

// WalletKey returns the key a wallet of given owner is stored under.
func WalletKey(ticker string, owner delphi.Address) []byte {
	return append([]byte(ticker+"/"), owner...)
}

// AllowanceKey returns the key an allowance is stored under. Addresses are
// of a fixed length, so the concatenation is not ambiguous.
func AllowanceKey(ticker string, owner, spender delphi.Address) []byte {
	key := append([]byte(ticker+"/"), owner...)
	return append(key, spender...)
}

// NewTokenBucket returns a bucket for storing tokens under their ticker.
func NewTokenBucket() orm.ModelBucket {
	return orm.NewModelBucket("tokens", &Token{})
}

// NewWalletBucket returns a bucket for storing wallet balances.
func NewWalletBucket() orm.ModelBucket {
	return orm.NewModelBucket("wallets", &Wallet{})
}

// NewAllowanceBucket returns a bucket for storing allowances.
func NewAllowanceBucket() orm.ModelBucket {
	return orm.NewModelBucket("allowance", &Allowance{})
}
