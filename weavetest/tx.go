package weavetest

import (
	"encoding/binary"

	"github.com/iov-one/delphi"
)

// Tx carries a single message. It cannot be serialized, handlers under
// test receive it as it is.
type Tx struct {
	Msg delphi.Msg
	// Err is returned by GetMsg when set.
	Err error
}

var _ delphi.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (delphi.Msg, error) { return tx.Msg, tx.Err }
func (tx *Tx) Marshal() ([]byte, error)    { panic("test transaction cannot be serialized") }
func (tx *Tx) Unmarshal([]byte) error      { panic("test transaction cannot be serialized") }

// Msg is routed to RoutePath and serializes to Serialized. Err, when set,
// is returned by Validate and the serialization methods.
type Msg struct {
	RoutePath  string
	Serialized []byte
	Err        error
}

var _ delphi.Msg = (*Msg)(nil)

func (m *Msg) Path() string             { return m.RoutePath }
func (m *Msg) Validate() error          { return m.Err }
func (m *Msg) Marshal() ([]byte, error) { return m.Serialized, m.Err }

func (m *Msg) Unmarshal(raw []byte) error {
	m.Serialized = raw
	return m.Err
}

// SequenceID returns the key of the nth value of an orm sequence, such as
// the id of the nth stake.
func SequenceID(n uint64) []byte {
	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, n)
	return id
}
