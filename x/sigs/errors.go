package sigs

import (
	"github.com/iov-one/delphi/errors"
)

// ErrInvalidSequence is returned when a signature carries a sequence that is
// not the next expected one. x/sigs reserves 20 ~ 29.
var ErrInvalidSequence = errors.Register(20, "invalid sequence number")
