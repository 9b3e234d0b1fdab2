package x

import (
	"github.com/iov-one/delphi"
)

// Authenticator tells which conditions signed or otherwise authorized the
// current transaction. Handlers receive one in their constructor, so the
// application decides which sources of authority exist.
type Authenticator interface {
	// GetConditions returns every condition authorized in the context.
	GetConditions(delphi.Context) []delphi.Condition
	// HasAddress is true if one of the authorized conditions has the
	// address.
	HasAddress(delphi.Context, delphi.Address) bool
}

// ChainAuth combines authenticators. A condition authorized by any of them
// is authorized by the result.
func ChainAuth(impls ...Authenticator) Authenticator {
	return authChain(impls)
}

type authChain []Authenticator

func (c authChain) GetConditions(ctx delphi.Context) []delphi.Condition {
	var conds []delphi.Condition
	for _, a := range c {
		conds = append(conds, a.GetConditions(ctx)...)
	}
	return conds
}

func (c authChain) HasAddress(ctx delphi.Context, addr delphi.Address) bool {
	for _, a := range c {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// HasAnyAddress is true if at least one of the addresses is authorized.
// Empty addresses are ignored.
func HasAnyAddress(ctx delphi.Context, auth Authenticator, addrs ...delphi.Address) bool {
	for _, addr := range addrs {
		if len(addr) != 0 && auth.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first authorized condition or nil. Messages that
// do not name their actor are executed on its behalf.
func MainSigner(ctx delphi.Context, auth Authenticator) delphi.Condition {
	if conds := auth.GetConditions(ctx); len(conds) > 0 {
		return conds[0]
	}
	return nil
}
