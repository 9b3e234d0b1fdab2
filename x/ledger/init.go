package ledger

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

const optKey = "ledger"

// GenesisToken declares a token in the genesis file.
type GenesisToken struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
}

// GenesisBalance issues tokens to an address in the genesis file.
type GenesisBalance struct {
	Ticker  string         `json:"ticker"`
	Address delphi.Address `json:"address"`
	Amount  uint64         `json:"amount"`
}

// Genesis is the content of the "ledger" section of the genesis file.
type Genesis struct {
	Tokens   []GenesisToken   `json:"tokens"`
	Balances []GenesisBalance `json:"balances"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ delphi.Initializer = Initializer{}

// FromGenesis registers all declared tokens and issues the initial
// balances.
func (Initializer) FromGenesis(opts delphi.Options, db delphi.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return err
	}

	tokens := NewTokenBucket()
	for i, t := range gen.Tokens {
		if !IsTicker(t.Ticker) {
			return errors.Wrapf(errors.ErrInput, "token %d: invalid ticker %q", i, t.Ticker)
		}
		if err := tokens.Has(db, []byte(t.Ticker)); err == nil {
			return errors.Wrapf(errors.ErrDuplicate, "token %s", t.Ticker)
		}
		token := Token{
			Metadata: &delphi.Metadata{Schema: 1},
			Name:     t.Name,
			Decimals: t.Decimals,
		}
		if _, err := tokens.Put(db, []byte(t.Ticker), &token); err != nil {
			return errors.Wrapf(err, "token %s", t.Ticker)
		}
	}

	ctrl := NewController()
	for i, b := range gen.Balances {
		if err := ctrl.Issue(db, b.Ticker, b.Address, b.Amount); err != nil {
			return errors.Wrapf(err, "balance %d", i)
		}
	}
	return nil
}
