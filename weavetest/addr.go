package weavetest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/delphi"
)

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) delphi.Address {
	raw := make([]byte, delphi.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := delphi.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not a valid address: %s", err)
	}
	return a
}
