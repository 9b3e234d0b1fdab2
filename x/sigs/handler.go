package sigs

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/x"
)

// RegisterRoutes registers the handlers of the sigs messages.
func RegisterRoutes(r delphi.Registry, auth x.Authenticator) {
	r.Handle(&BumpSequenceMsg{}, bumpSequenceHandler{auth: auth, bucket: NewBucket()})
}

type bumpSequenceHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

func (h bumpSequenceHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

// Deliver moves the sequence of the main signer forward. Verifying the
// signature already used one, so Increment-1 is left to add.
func (h bumpSequenceHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	acc, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if msg.Increment == 1 {
		return &delphi.DeliverResult{}, nil
	}
	if err := acc.bump(int64(msg.Increment) - 1); err != nil {
		return nil, err
	}
	if _, err := h.bucket.Put(db, acc.Pubkey.Address(), acc); err != nil {
		return nil, errors.Wrap(err, "save account")
	}
	return &delphi.DeliverResult{}, nil
}

func (h bumpSequenceHandler) validate(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*Account, *BumpSequenceMsg, error) {
	var msg BumpSequenceMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	var acc Account
	if err := h.bucket.One(db, signer.Address(), &acc); err != nil {
		return nil, nil, errors.Wrap(err, "no sequence")
	}
	if acc.Sequence+int64(msg.Increment) > maxSequence {
		return nil, nil, errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	return &acc, &msg, nil
}
