package arbitration

import "github.com/iov-one/delphi"

// Executor delivers a message produced by the protocol.
type Executor func(ctx delphi.Context, db delphi.KVStore, msg delphi.Msg) (*delphi.DeliverResult, error)

// HandlerAsExecutor wraps the msg in a fake Tx to satisfy the Handler interface.
// Since a Router and Decorators also expose this interface, we can wrap any stack
// that does not care about the extra Tx info besides Msg.
func HandlerAsExecutor(h delphi.Handler) Executor {
	return func(ctx delphi.Context, db delphi.KVStore, msg delphi.Msg) (*delphi.DeliverResult, error) {
		return h.Deliver(ctx, db, &msgTx{msg: msg})
	}
}

type msgTx struct {
	msg delphi.Msg
}

var _ delphi.Tx = (*msgTx)(nil)

func (tx *msgTx) GetMsg() (delphi.Msg, error) {
	return tx.msg, nil
}

func (tx *msgTx) Marshal() ([]byte, error) {
	return tx.msg.Marshal()
}

func (tx *msgTx) Unmarshal(raw []byte) error {
	return tx.msg.Unmarshal(raw)
}
