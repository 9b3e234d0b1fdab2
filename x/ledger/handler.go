package ledger

import (
	"strconv"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r delphi.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(&SendMsg{}, &sendHandler{auth: auth, ctrl: ctrl})
	r.Handle(&ApproveMsg{}, &approveHandler{auth: auth, ctrl: ctrl})
}

// RegisterQuery exposes tokens, wallets and allowances.
func RegisterQuery(qr delphi.QueryRouter) {
	NewTokenBucket().Register("tokens", qr)
	NewWalletBucket().Register("wallets", qr)
	NewAllowanceBucket().Register("allowances", qr)
}

type sendHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h *sendHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *sendHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Transfer(db, msg.Ticker, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("tokens sent",
		"ticker", msg.Ticker,
		"from", msg.Source,
		"to", msg.Destination,
		"amount", msg.Amount)

	res := &delphi.DeliverResult{}
	res.Tag("ledger.transfer", strconv.FormatUint(msg.Amount, 10))
	return res, nil
}

func (h *sendHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source signature missing")
	}
	if err := h.ctrl.HasToken(db, msg.Ticker); err != nil {
		return nil, err
	}
	balance, err := h.ctrl.Balance(db, msg.Ticker, msg.Source)
	if err != nil {
		return nil, err
	}
	if balance < msg.Amount {
		return nil, errors.Wrapf(ErrTransferFailed, "balance of %s is %d, need %d", msg.Source, balance, msg.Amount)
	}
	return &msg, nil
}

type approveHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h *approveHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *approveHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Approve(db, msg.Ticker, msg.Owner, msg.Spender, msg.Amount); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("allowance set",
		"ticker", msg.Ticker,
		"owner", msg.Owner,
		"spender", msg.Spender,
		"amount", msg.Amount)
	return &delphi.DeliverResult{}, nil
}

func (h *approveHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*ApproveMsg, error) {
	var msg ApproveMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature missing")
	}
	if err := h.ctrl.HasToken(db, msg.Ticker); err != nil {
		return nil, err
	}
	return &msg, nil
}
