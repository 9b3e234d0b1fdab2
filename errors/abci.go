package errors

import (
	"errors"
	"fmt"
)

const (
	// SuccessABCICode is returned for a transaction that was processed
	// without an error.
	SuccessABCICode = 0

	// Errors that do not carry a registered code are reported under a
	// single internal code with a generic message.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log message that describe given error in a
// transaction result. Errors without a registered code are internal and in
// non debug mode their message is replaced with a generic one.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}

	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return internalABCICode, internalABCILog
	default:
		return code, err.Error()
	}
}

type coder interface {
	ABCICode() uint32
}

// abciCode unwraps given error until a registered code is found.
func abciCode(err error) uint32 {
	if isNilErr(err) {
		return SuccessABCICode
	}
	for {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			return internalABCICode
		}
		err = c.Cause()
	}
}

// Redact replaces all errors that are not rooted in a registered error (and
// all recovered panics) with a generic internal error.
//
// In debug mode the error is returned unchanged.
func Redact(err error, debug bool) error {
	if debug || isNilErr(err) {
		return err
	}
	if ErrPanic.Is(err) || abciCode(err) == internalABCICode {
		return errors.New(internalABCILog)
	}
	return err
}

// ABCIError returns the error registered for given code, wrapped with log.
// It is the reverse of ABCIInfo and is used by clients to turn a failed
// transaction result back into an error that can be tested with Is.
func ABCIError(code uint32, log string) error {
	if e, ok := registry[code]; ok {
		return Wrap(e, log)
	}
	return Wrap(&Error{code: code, desc: "unknown error code"}, log)
}
