package app

import (
	"reflect"

	"github.com/iov-one/delphi"
)

// Decorators is a stack of decorators waiting for the handler they wrap.
type Decorators struct {
	chain []delphi.Decorator
}

// ChainDecorators stacks decorators, the first one running first. Nil
// entries are skipped so optional decorators can be listed inline:
//
//	app.ChainDecorators(
//		app.NewRecovery(),
//		sigs.NewDecorator(),
//	).WithHandler(router)
func ChainDecorators(chain ...delphi.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a copy of the stack with more decorators at the bottom.
func (d Decorators) Chain(more ...delphi.Decorator) Decorators {
	chain := make([]delphi.Decorator, 0, len(d.chain)+len(more))
	chain = append(chain, d.chain...)
	for _, dec := range more {
		if !isNilDecorator(dec) {
			chain = append(chain, dec)
		}
	}
	return Decorators{chain: chain}
}

func isNilDecorator(d delphi.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler closes the stack with h.
func (d Decorators) WithHandler(h delphi.Handler) delphi.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = wrapped{dec: d.chain[i], next: h}
	}
	return h
}

// wrapped is one decorator bound to the rest of the stack.
type wrapped struct {
	dec  delphi.Decorator
	next delphi.Handler
}

var _ delphi.Handler = wrapped{}

func (w wrapped) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	return w.dec.Check(ctx, db, tx, w.next)
}

func (w wrapped) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	return w.dec.Deliver(ctx, db, tx, w.next)
}
