// Package bech32 converts addresses to and from their human readable bech32
// representation.
package bech32

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/delphi/errors"
)

// Decode returns the human readable part and the raw 8 bit payload of given
// bech32 string.
func Decode(raw string) (string, []byte, error) {
	hrp, data, err := bech32.Decode(raw)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return hrp, payload, nil
}

// Encode returns the bech32 representation of payload using hrp as the human
// readable part.
func Encode(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	raw, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}
