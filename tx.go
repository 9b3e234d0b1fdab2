package delphi

import (
	"reflect"

	"github.com/iov-one/delphi/errors"
)

// Msg is a request for a state transition, like staking on a claim or
// committing a vote. Authentication lives in the wrapping Tx.
type Msg interface {
	Persistent

	// Path routes the message to its handler. It matches [0-9A-Za-z_\-/]+.
	Path() string

	// Validate checks the message on its own, without reading state.
	Validate() error
}

// Marshaller may validate before serializing, so errors are expected for
// unvalidated values.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent is usually implemented by a pointer, while Marshaller also
// fits plain values.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Tx is what a user submits: one message plus what the decorators need,
// such as signatures.
type Tx interface {
	Persistent

	GetMsg() (Msg, error)
}

// GetPath is the path of the carried message, or "(missing)".
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder parses the raw bytes of a transaction.
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message carried by the transaction, validates it and
// copies its value into destination. Destination must be a pointer to the
// expected message type.
//
//	var msg OpenClaimMsg
//	if err := delphi.LoadMsg(tx, &msg); err != nil {
//		return nil, err
//	}
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "no message")
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.IsNil() {
		return errors.Wrap(errors.ErrHuman, "destination must be a non nil pointer")
	}

	src := reflect.ValueOf(msg)
	if src.Kind() == reflect.Ptr {
		if src.IsNil() {
			return errors.Wrap(errors.ErrMsg, "nil message")
		}
		src = src.Elem()
	}
	if src.Type() != dest.Elem().Type() {
		return errors.Wrapf(errors.ErrType, "want %s message, got %T", dest.Elem().Type(), msg)
	}

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}

	dest.Elem().Set(src)
	return nil
}
