package app

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ delphi.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (Recovery) Check(ctx delphi.Context, store delphi.KVStore, tx delphi.Tx, next delphi.Checker) (_ *delphi.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (Recovery) Deliver(ctx delphi.Context, store delphi.KVStore, tx delphi.Tx, next delphi.Deliverer) (_ *delphi.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
