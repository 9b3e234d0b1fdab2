/*
Package sigs verifies the ed25519 signatures of a transaction and keeps the
sequence of every signer, which protects against replays.
*/
package sigs

import (
	"context"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x"
)

type ctxKey struct{}

// Decorator verifies the signatures of every transaction and exposes the
// signers to the rest of the stack through Authenticate. A transaction
// must carry at least one signature.
type Decorator struct{}

var _ delphi.Decorator = Decorator{}

func NewDecorator() Decorator {
	return Decorator{}
}

func (d Decorator) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx, next delphi.Checker) (*delphi.CheckResult, error) {
	ctx, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

func (d Decorator) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx, next delphi.Deliverer) (*delphi.DeliverResult, error) {
	ctx, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

func (Decorator) authenticate(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (delphi.Context, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%T is not signed", tx)
	}
	signers, err := verifyTx(db, stx, delphi.GetChainID(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return context.WithValue(ctx, ctxKey{}, signers), nil
}

// Authenticate reports the signers of the running transaction.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

func (Authenticate) GetConditions(ctx delphi.Context) []delphi.Condition {
	signers, _ := ctx.Value(ctxKey{}).([]delphi.Condition)
	return signers
}

func (a Authenticate) HasAddress(ctx delphi.Context, addr delphi.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
