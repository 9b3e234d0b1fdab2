package errors

import "fmt"

// Kinds shared by every extension. Extension specific kinds are registered
// by the extension itself, with codes of its own range.
var (
	// ErrUnauthorized: the signers of a transaction may not run it.
	ErrUnauthorized = Register(2, "unauthorized")

	// ErrNotFound: a stake, claim, poll or account does not exist.
	ErrNotFound = Register(3, "not found")

	// ErrMsg: a message fails its own validation.
	ErrMsg = Register(4, "invalid message")

	// ErrModel: a model cannot be stored as it is.
	ErrModel = Register(5, "invalid model")

	// ErrDuplicate: a unique key or index is already taken.
	ErrDuplicate = Register(6, "duplicate")

	// ErrHuman: a code path that a correct program never reaches.
	ErrHuman = Register(7, "coding error")

	// ErrEmpty: a required value is missing.
	ErrEmpty = Register(9, "value is empty")

	// ErrState: an object is not in a state that allows the operation.
	ErrState = Register(10, "invalid state")

	// ErrType: a value is not of the expected type.
	ErrType = Register(11, "invalid type")

	// ErrAmount: a coin amount is out of range.
	ErrAmount = Register(13, "invalid amount")

	// ErrInput: catch all for malformed input.
	ErrInput = Register(14, "invalid input")

	// ErrExpired: a block time deadline has passed.
	ErrExpired = Register(15, "expired")

	// ErrOverflow: a result does not fit its type.
	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")

	// ErrDatabase: the underlying storage failed.
	ErrDatabase = Register(17, "database")

	// ErrMetadata: the metadata of a model or message is missing or invalid.
	ErrMetadata = Register(18, "invalid metadata")

	// ErrPanic is the kind of every recovered panic. Its details are never
	// shown outside of debug mode.
	ErrPanic = Register(111222, "panic")
)

// registry maps each code to its kind. Code 1 stands for errors of no
// registered kind and cannot be taken.
var registry = map[uint32]*Error{
	internalABCICode: {code: internalABCICode, desc: internalABCILog},
}

// Register declares a new kind of error. Codes are unique: registering a
// code twice panics, so kinds must be declared at package initialization.
func Register(code uint32, description string) *Error {
	if prev, ok := registry[code]; ok {
		panic(fmt.Sprintf("error code %d already taken by %q", code, prev.desc))
	}
	e := &Error{code: code, desc: description}
	registry[code] = e
	return e
}

// Error is a kind of error, identified by its ABCI code. Errors returned at
// runtime wrap a kind, so that callers can test for it with Is and clients
// get a stable code.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

// ABCICode returns the code the kind was registered with.
func (e Error) ABCICode() uint32 {
	return e.code
}

// New is a shortcut for Wrap(e, description).
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Is reports whether err is of this kind, looking through wraps and
// appended errors. A nil kind matches nil errors only.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for err != nil {
		if err == e {
			return true
		}
		if m, ok := err.(unpacker); ok {
			for _, inner := range m.Unpack() {
				if e.Is(inner) {
					return true
				}
			}
			return false
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
