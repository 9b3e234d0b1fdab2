/*
Package delphi defines the common interfaces that tie the stake, claim and
arbitration extensions together, as well as the small value types (Address,
Condition, UnixTime) shared by all of them.

Every state transition is a Tx carrying a single Msg. The application routes
the message by its path to a Handler. Handlers receive a Context, which is a
plain context.Context enriched with block information, and a KVStore scoped
to a single transaction:

	Check(ctx Context, db KVStore, tx Tx) (*CheckResult, error)
	Deliver(ctx Context, db KVStore, tx Tx) (*DeliverResult, error)

The block information is stored in the context using a pair of functions for
every value:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (T, bool)

WithXYZ panics if the value was previously set so that lower level code cannot
overwrite what the application declared for the block.
*/
package delphi
