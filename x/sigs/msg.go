package sigs

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

const (
	pathBumpSequenceMsg = "sigs/bump_sequence"

	maxSequenceIncrement = 1000
	minSequenceIncrement = 1
)

func init() {
	delphi.RegisterMsg(&BumpSequenceMsg{}, "delphi/sigs/BumpSequenceMsg")
}

// BumpSequenceMsg increments the sequence of the main signer. It allows a
// signer to invalidate transactions that were signed but not submitted.
type BumpSequenceMsg struct {
	Metadata  *delphi.Metadata `json:"metadata"`
	Increment uint32           `json:"increment"`
}

var _ delphi.Msg = (*BumpSequenceMsg)(nil)

func (msg *BumpSequenceMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if msg.Increment < minSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must be at least %d", minSequenceIncrement)
	}
	if msg.Increment > maxSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must not be greater than %d", maxSequenceIncrement)
	}
	return nil
}

func (BumpSequenceMsg) Path() string {
	return pathBumpSequenceMsg
}

func (msg *BumpSequenceMsg) Marshal() ([]byte, error) {
	return delphi.Marshal(msg)
}

func (msg *BumpSequenceMsg) Unmarshal(raw []byte) error {
	return delphi.Unmarshal(raw, msg)
}
