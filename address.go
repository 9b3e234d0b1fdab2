package delphi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/delphi/crypto/bech32"
	"github.com/iov-one/delphi/errors"
)

var (
	// AddressLength is the size of every address.
	AddressLength = 20

	// AddressHRP prefixes the bech32 form of an address.
	AddressHRP = "dlph"
)

// Address identifies an account. It is the truncated sha256 of the
// condition that controls the account.
type Address []byte

// NewAddress digests data into an address. Nil data gives a nil address.
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	sum := sha256.Sum256(data)
	return sum[:AddressLength]
}

func (a Address) Equals(other Address) bool {
	return bytes.Equal(a, other)
}

// Validate fails unless the address has AddressLength bytes.
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInput, "address: %v", a)
	}
	return nil
}

// String is the upper case hex of the address, "(nil)" when empty.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// Bech32 is the bech32 form of the address, falling back to hex if it
// cannot be encoded.
func (a Address) Bech32() string {
	s, err := bech32.Encode(AddressHRP, a)
	if err != nil {
		return a.String()
	}
	return s
}

// MarshalJSON writes upper case hex instead of the default base64.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(a)))
}

// UnmarshalJSON accepts any form ParseAddress does.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress reads an address given as plain hex, or prefixed by its
// form: "hex:", "bech32:" or "cond:" for a condition whose address is
// taken. An empty value is a nil address.
func ParseAddress(s string) (Address, error) {
	form := "hex"
	if i := strings.IndexByte(s, ':'); i >= 0 {
		form, s = s[:i], s[i+1:]
	}
	if s == "" {
		return nil, nil
	}

	var addr Address
	switch form {
	case "hex":
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
		}
		addr = raw
	case "bech32":
		_, raw, err := bech32.Decode(s)
		if err != nil {
			return nil, errors.Wrap(err, "deserialize bech32")
		}
		addr = raw
	case "cond":
		c, err := parseCondition(s)
		if err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c.Address(), nil
	default:
		return nil, errors.Wrapf(errors.ErrType, "unknown format %q", form)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
