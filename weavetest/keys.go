package weavetest

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/crypto"
)

// NewKey returns a freshly generated ed25519 private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a signature condition of a freshly generated key.
func NewCondition() delphi.Condition {
	return NewKey().PublicKey().Condition()
}
