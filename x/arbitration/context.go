package arbitration

import (
	"context"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/x"
)

type contextKey int

const (
	// private type creates an interface key for Context that cannot be accessed by any other package
	contextKeyArbitration contextKey = iota
)

// ProtocolCondition is the condition the protocol uses to rule on claims.
func ProtocolCondition() delphi.Condition {
	return delphi.NewCondition("arbitration", "protocol", []byte("vote"))
}

// ProtocolAddress is the address of the protocol. A stake with this
// address as the arbiter can be voted on by every listed arbiter.
func ProtocolAddress() delphi.Address {
	return ProtocolCondition().Address()
}

func withProtocol(ctx delphi.Context) delphi.Context {
	val, _ := ctx.Value(contextKeyArbitration).([]delphi.Condition)
	return context.WithValue(ctx, contextKeyArbitration, append(val, ProtocolCondition()))
}

// Authenticate gets permissions granted by the protocol from the context.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns permissions previously set on this context.
func (Authenticate) GetConditions(ctx delphi.Context) []delphi.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyArbitration).([]delphi.Condition)
	return val
}

// HasAddress returns true iff this address is in GetConditions.
func (a Authenticate) HasAddress(ctx delphi.Context, addr delphi.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
