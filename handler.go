package delphi

// Handler runs the messages of one kind, like opening a claim or revealing
// a vote. Check validates a transaction for the mempool, Deliver executes
// it within a block.
type Handler interface {
	Checker
	Deliverer
}

// Checker is the validation half of a Handler.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is the execution half of a Handler.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator runs around the next handler of the stack, to share concerns
// like authentication or panic recovery between all messages.
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry binds handlers to message paths.
type Registry interface {
	// Handle routes the messages of the path of m to h.
	Handle(m Msg, h Handler)
}

// Initializer loads the genesis state of an extension.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
