package stake

import "github.com/iov-one/delphi/errors"

var (
	ErrFeeTooLow            = errors.Register(50, "fee too low")
	ErrInsufficientStake    = errors.Register(51, "insufficient stake")
	ErrAlreadyRuled         = errors.Register(52, "claim already ruled")
	ErrUnknownClaim         = errors.Register(53, "unknown claim")
	ErrInvalidConfiguration = errors.Register(54, "invalid configuration")
)
