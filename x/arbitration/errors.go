package arbitration

import "github.com/iov-one/delphi/errors"

var (
	ErrAlreadyRevealed    = errors.Register(60, "vote already revealed")
	ErrCommitmentMismatch = errors.Register(61, "commitment mismatch")
)
