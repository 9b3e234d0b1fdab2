// Package crypto provides the ed25519 keys used to sign transactions and the
// conditions derived from them.
package crypto

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// ExtensionName is used for the conditions we get from signatures
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use
type PubKey interface {
	Verify(message []byte, sig *Signature) bool
	Condition() delphi.Condition
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is the serializable form of a public key.
type PublicKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// PrivateKey is the serializable form of a private key.
type PrivateKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// Signature is the serializable form of a signature.
type Signature struct {
	Ed25519 []byte `json:"ed25519"`
}

// Address returns the address of the condition this key grants.
func (p *PublicKey) Address() delphi.Address {
	return p.Condition().Address()
}

// Marshal serializes the key with the shared codec.
func (p *PublicKey) Marshal() ([]byte, error) { return delphi.Marshal(p) }

// Unmarshal deserializes the key with the shared codec.
func (p *PublicKey) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, p) }

// Marshal serializes the key with the shared codec.
func (p *PrivateKey) Marshal() ([]byte, error) { return delphi.Marshal(p) }

// Unmarshal deserializes the key with the shared codec.
func (p *PrivateKey) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, p) }

// Marshal serializes the signature with the shared codec.
func (s *Signature) Marshal() ([]byte, error) { return delphi.Marshal(s) }

// Unmarshal deserializes the signature with the shared codec.
func (s *Signature) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, s) }

// Validate returns an error if the public key does not have a valid length.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) != publicKeySize {
		return errors.Wrap(errors.ErrInput, "invalid ed25519 public key")
	}
	return nil
}
