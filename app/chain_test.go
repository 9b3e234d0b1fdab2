package app

import (
	"context"
	"testing"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/weavetest/assert"
)

func TestChain(t *testing.T) {
	var (
		d1 = &weavetest.Decorator{}
		d2 = &weavetest.Decorator{}
		h  = &weavetest.Handler{}
	)

	stack := ChainDecorators(
		d1,
		nil,
		NewRecovery(),
		d2,
	).WithHandler(h)

	ctx := context.Background()
	tx := &weavetest.Tx{}

	if _, err := stack.Check(ctx, nil, tx); err != nil {
		t.Fatalf("check: %s", err)
	}
	if _, err := stack.Deliver(ctx, nil, tx); err != nil {
		t.Fatalf("deliver: %s", err)
	}
	assert.Equal(t, 2, d1.CallCount())
	assert.Equal(t, 2, d2.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// an error in the middle of the stack stops the call
	d2.DeliverErr = errors.ErrUnauthorized
	_, err := stack.Deliver(ctx, nil, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, 3, d1.CallCount())
	assert.Equal(t, 3, d2.CallCount())
	assert.Equal(t, 2, h.CallCount())
}

func TestChainKeepsOriginal(t *testing.T) {
	base := ChainDecorators(&weavetest.Decorator{})
	a := base.Chain(&weavetest.Decorator{})
	b := base.Chain(&weavetest.Decorator{}, &weavetest.Decorator{})

	assert.Equal(t, 1, len(base.chain))
	assert.Equal(t, 2, len(a.chain))
	assert.Equal(t, 3, len(b.chain))
	if a.chain[1] == b.chain[1] {
		t.Fatal("chains share the decorator slice")
	}
}

type panicHandler struct{}

func (panicHandler) Check(delphi.Context, delphi.KVStore, delphi.Tx) (*delphi.CheckResult, error) {
	panic("check failure")
}

func (panicHandler) Deliver(delphi.Context, delphi.KVStore, delphi.Tx) (*delphi.DeliverResult, error) {
	panic("deliver failure")
}

func TestRecovery(t *testing.T) {
	h := ChainDecorators(NewRecovery()).WithHandler(panicHandler{})
	ctx := context.Background()

	_, err := h.Check(ctx, nil, &weavetest.Tx{})
	assert.IsErr(t, errors.ErrPanic, err)

	_, err = h.Deliver(ctx, nil, &weavetest.Tx{})
	assert.IsErr(t, errors.ErrPanic, err)

	assert.Panics(t, func() {
		_, _ = panicHandler{}.Deliver(ctx, nil, &weavetest.Tx{})
	})
}
