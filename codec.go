package delphi

import (
	"github.com/iov-one/delphi/errors"
	amino "github.com/tendermint/go-amino"
)

// Codec is shared by all extensions to serialize models, messages and
// transactions. Every message type must be registered with RegisterMsg
// before a transaction carrying it can be serialized.
var Codec = amino.NewCodec()

func init() {
	Codec.RegisterInterface((*Msg)(nil), nil)
}

// RegisterMsg registers a concrete message type under given name. Pass a
// pointer to the zero value of the message.
func RegisterMsg(m Msg, name string) {
	Codec.RegisterConcrete(m, name, nil)
}

// Marshal serializes a model or a message using the shared codec.
func Marshal(o interface{}) ([]byte, error) {
	raw, err := Codec.MarshalBinaryBare(o)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// Unmarshal deserializes data into o using the shared codec. o must be a
// pointer.
func Unmarshal(raw []byte, o interface{}) error {
	if err := Codec.UnmarshalBinaryBare(raw, o); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return nil
}
