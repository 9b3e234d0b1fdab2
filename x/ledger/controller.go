package ledger

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/x"
)

// Controller is the narrow interface other extensions use to move tokens.
// All writes go through the given store, so the caller decides whether
// they are committed.
type Controller interface {
	// Transfer moves amount of ticker tokens from one address to another.
	Transfer(db delphi.KVStore, ticker string, from, to delphi.Address, amount uint64) error
	// TransferFrom moves tokens out of the owner's wallet on behalf of the
	// spender. The spender's allowance is reduced by the amount.
	TransferFrom(db delphi.KVStore, ticker string, owner, spender, to delphi.Address, amount uint64) error
	// Approve sets the amount the spender may move out of the owner's
	// wallet. A zero amount revokes the allowance.
	Approve(db delphi.KVStore, ticker string, owner, spender delphi.Address, amount uint64) error
	// Burn destroys tokens held by given address.
	Burn(db delphi.KVStore, ticker string, from delphi.Address, amount uint64) error
	// Balance returns the amount of tokens owned by the address.
	Balance(db delphi.ReadOnlyKVStore, ticker string, owner delphi.Address) (uint64, error)
	// Allowance returns the amount the spender may still move.
	Allowance(db delphi.ReadOnlyKVStore, ticker string, owner, spender delphi.Address) (uint64, error)
	// HasToken returns ErrNotFound if the ticker is not known.
	HasToken(db delphi.ReadOnlyKVStore, ticker string) error
}

// BaseController is the Controller implementation backed by the ledger
// buckets.
type BaseController struct {
	tokens     orm.ModelBucket
	wallets    orm.ModelBucket
	allowances orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		tokens:     NewTokenBucket(),
		wallets:    NewWalletBucket(),
		allowances: NewAllowanceBucket(),
	}
}

func (c BaseController) HasToken(db delphi.ReadOnlyKVStore, ticker string) error {
	if !IsTicker(ticker) {
		return errors.Wrapf(errors.ErrInput, "invalid ticker %q", ticker)
	}
	if err := c.tokens.Has(db, []byte(ticker)); err != nil {
		return errors.Wrapf(err, "token %s", ticker)
	}
	return nil
}

func (c BaseController) Balance(db delphi.ReadOnlyKVStore, ticker string, owner delphi.Address) (uint64, error) {
	w, err := c.wallet(db, ticker, owner)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

func (c BaseController) Allowance(db delphi.ReadOnlyKVStore, ticker string, owner, spender delphi.Address) (uint64, error) {
	var a Allowance
	switch err := c.allowances.One(db, AllowanceKey(ticker, owner, spender), &a); {
	case err == nil:
		return a.Amount, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "allowance")
	}
}

func (c BaseController) Transfer(db delphi.KVStore, ticker string, from, to delphi.Address, amount uint64) error {
	if err := c.validate(db, ticker, amount, from, to); err != nil {
		return err
	}
	return c.move(db, ticker, from, to, amount)
}

func (c BaseController) TransferFrom(db delphi.KVStore, ticker string, owner, spender, to delphi.Address, amount uint64) error {
	if err := c.validate(db, ticker, amount, owner, spender, to); err != nil {
		return err
	}
	allowed, err := c.Allowance(db, ticker, owner, spender)
	if err != nil {
		return err
	}
	left, err := x.SubAmount(allowed, amount)
	if err != nil {
		return errors.Wrapf(ErrTransferFailed, "allowance of %s is %d, need %d", spender, allowed, amount)
	}
	if err := c.move(db, ticker, owner, to, amount); err != nil {
		return err
	}
	return c.setAllowance(db, ticker, owner, spender, left)
}

func (c BaseController) Approve(db delphi.KVStore, ticker string, owner, spender delphi.Address, amount uint64) error {
	if err := c.HasToken(db, ticker); err != nil {
		return err
	}
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := spender.Validate(); err != nil {
		return errors.Wrap(err, "spender")
	}
	return c.setAllowance(db, ticker, owner, spender, amount)
}

func (c BaseController) Burn(db delphi.KVStore, ticker string, from delphi.Address, amount uint64) error {
	if err := c.validate(db, ticker, amount, from); err != nil {
		return err
	}
	w, err := c.wallet(db, ticker, from)
	if err != nil {
		return err
	}
	if w.Balance, err = x.SubAmount(w.Balance, amount); err != nil {
		return errors.Wrapf(ErrTransferFailed, "balance of %s is too low to burn %d", from, amount)
	}
	if _, err := c.wallets.Put(db, WalletKey(ticker, from), w); err != nil {
		return errors.Wrap(err, "save wallet")
	}

	var t Token
	if err := c.tokens.One(db, []byte(ticker), &t); err != nil {
		return errors.Wrap(err, "token")
	}
	if t.Supply, err = x.SubAmount(t.Supply, amount); err != nil {
		return errors.Wrap(errors.ErrState, "supply lower than burned amount")
	}
	if _, err := c.tokens.Put(db, []byte(ticker), &t); err != nil {
		return errors.Wrap(err, "save token")
	}
	return nil
}

// Issue creates new tokens in the wallet of given address. It is used only
// when loading the genesis.
func (c BaseController) Issue(db delphi.KVStore, ticker string, to delphi.Address, amount uint64) error {
	if err := c.validate(db, ticker, amount, to); err != nil {
		return err
	}
	var t Token
	if err := c.tokens.One(db, []byte(ticker), &t); err != nil {
		return errors.Wrap(err, "token")
	}
	supply, err := x.AddAmounts(t.Supply, amount)
	if err != nil {
		return errors.Wrap(err, "supply")
	}
	t.Supply = supply
	if _, err := c.tokens.Put(db, []byte(ticker), &t); err != nil {
		return errors.Wrap(err, "save token")
	}

	w, err := c.wallet(db, ticker, to)
	if err != nil {
		return err
	}
	if w.Balance, err = x.AddAmounts(w.Balance, amount); err != nil {
		return errors.Wrap(err, "balance")
	}
	if _, err := c.wallets.Put(db, WalletKey(ticker, to), w); err != nil {
		return errors.Wrap(err, "save wallet")
	}
	return nil
}

// validate ensures that the token exists, the amount is not zero and all
// addresses are valid.
func (c BaseController) validate(db delphi.ReadOnlyKVStore, ticker string, amount uint64, addrs ...delphi.Address) error {
	if amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "zero amount")
	}
	for _, a := range addrs {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return c.HasToken(db, ticker)
}

// move transfers tokens between two wallets without any further checks.
func (c BaseController) move(db delphi.KVStore, ticker string, from, to delphi.Address, amount uint64) error {
	sender, err := c.wallet(db, ticker, from)
	if err != nil {
		return err
	}
	if sender.Balance < amount {
		return errors.Wrapf(ErrTransferFailed, "balance of %s is %d, need %d", from, sender.Balance, amount)
	}
	if from.Equals(to) {
		return nil
	}
	recipient, err := c.wallet(db, ticker, to)
	if err != nil {
		return err
	}
	if recipient.Balance, err = x.AddAmounts(recipient.Balance, amount); err != nil {
		return errors.Wrap(err, "recipient balance")
	}
	sender.Balance -= amount

	if _, err := c.wallets.Put(db, WalletKey(ticker, from), sender); err != nil {
		return errors.Wrap(err, "save sender")
	}
	if _, err := c.wallets.Put(db, WalletKey(ticker, to), recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

// wallet returns the wallet of given owner or a new empty one.
func (c BaseController) wallet(db delphi.ReadOnlyKVStore, ticker string, owner delphi.Address) (*Wallet, error) {
	var w Wallet
	switch err := c.wallets.One(db, WalletKey(ticker, owner), &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{Metadata: &delphi.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "wallet")
	}
}

func (c BaseController) setAllowance(db delphi.KVStore, ticker string, owner, spender delphi.Address, amount uint64) error {
	key := AllowanceKey(ticker, owner, spender)
	if amount == 0 {
		if err := c.allowances.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return errors.Wrap(err, "delete allowance")
		}
		return nil
	}
	a := Allowance{Metadata: &delphi.Metadata{Schema: 1}, Amount: amount}
	if _, err := c.allowances.Put(db, key, &a); err != nil {
		return errors.Wrap(err, "save allowance")
	}
	return nil
}
