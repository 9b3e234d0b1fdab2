package weavetest

import (
	"context"

	"github.com/iov-one/delphi"
)

// Auth authorizes a fixed set of conditions, whatever the context.
type Auth struct {
	// Signer is a shortcut for a single authorized condition.
	Signer delphi.Condition
	// Signers are authorized in addition to Signer.
	Signers []delphi.Condition
}

func (a *Auth) GetConditions(delphi.Context) []delphi.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	conds := make([]delphi.Condition, 0, len(a.Signers)+1)
	return append(append(conds, a.Signers...), a.Signer)
}

func (a *Auth) HasAddress(ctx delphi.Context, addr delphi.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth authorizes the conditions stored in the context with
// SetConditions. Two CtxAuth with different keys do not see each other's
// conditions, which allows to mimic more than one source of authority.
type CtxAuth struct {
	Key string
}

type ctxAuthKey string

// SetConditions returns a context authorizing given conditions. Previously
// set conditions are replaced.
func (a *CtxAuth) SetConditions(ctx delphi.Context, conds ...delphi.Condition) delphi.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx delphi.Context) []delphi.Condition {
	conds, _ := ctx.Value(ctxAuthKey(a.Key)).([]delphi.Condition)
	return conds
}

func (a *CtxAuth) HasAddress(ctx delphi.Context, addr delphi.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []delphi.Condition, addr delphi.Address) bool {
	for _, c := range conds {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}
