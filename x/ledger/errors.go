package ledger

import "github.com/iov-one/delphi/errors"

var (
	// ErrTransferFailed is returned when a transfer cannot be executed
	// because of insufficient balance or allowance.
	ErrTransferFailed = errors.Register(40, "transfer failed")

	// ErrInvalidAmount is returned when a zero amount is moved.
	ErrInvalidAmount = errors.Register(41, "invalid amount")
)
