/*
Package app links together all the various components
to construct the delphi application.
*/
package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/app"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/store/iavl"
	"github.com/iov-one/delphi/x"
	"github.com/iov-one/delphi/x/arbitration"
	"github.com/iov-one/delphi/x/ledger"
	"github.com/iov-one/delphi/x/registry"
	"github.com/iov-one/delphi/x/sigs"
	"github.com/iov-one/delphi/x/stake"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the typical authentication, public key signatures
// and the conditions granted by the arbitration protocol while it
// dispatches a ruling.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, arbitration.Authenticate{})
}

// Chain returns a chain of decorators, to handle recovery and
// authentication.
func Chain() app.Decorators {
	return app.ChainDecorators(
		app.NewRecovery(),
		sigs.NewDecorator(),
	)
}

// Router returns a router dispatching to every extension of the
// application. Rulings of resolved polls are dispatched through the same
// router, so they pass the stake authorization like any other ruling.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	tokens := ledger.NewController()
	sigs.RegisterRoutes(r, authFn)
	ledger.RegisterRoutes(r, authFn, tokens)
	stake.RegisterRoutes(r, authFn, tokens, arbitration.ProtocolAddress())
	arbitration.RegisterRoutes(r, authFn, stake.NewController(), registry.NewRegistry(), arbitration.HandlerAsExecutor(r))
	return r
}

// QueryRouter returns a default query router exposing the buckets of all
// extensions.
func QueryRouter() delphi.QueryRouter {
	r := delphi.NewQueryRouter()
	r.RegisterAll(
		sigs.RegisterQuery,
		ledger.RegisterQuery,
		registry.RegisterQuery,
		stake.RegisterQuery,
		arbitration.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() delphi.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}

// Initializers returns the genesis initializers of all extensions.
func Initializers() delphi.Initializer {
	return app.ChainInitializers(
		ledger.Initializer{},
		registry.Initializer{},
		stake.Initializer{},
		arbitration.Initializer{},
	)
}

// Application constructs the delphi ABCI application on top of given
// store.
func Application(name string, kv delphi.CommitKVStore, logger log.Logger, debug bool) app.BaseApp {
	store := app.NewStoreApp(name, kv, QueryRouter(), context.Background()).
		WithInit(Initializers()).
		WithLogger(logger)
	return app.NewBaseApp(store, TxDecoder, Stack(), debug)
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (delphi.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewCommitStore("", "delphi"), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name %q: %s", dbPath, err)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name), nil
}
