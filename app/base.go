package app

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp is a StoreApp that also runs transactions through a handler.
// Each transaction writes to a cache of the block state, kept only when
// the handler succeeds: a failed transaction leaves nothing behind.
type BaseApp struct {
	*StoreApp
	decoder delphi.TxDecoder
	handler delphi.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp returns an application decoding transactions with decoder
// and running them with handler. In debug mode errors are reported in
// full.
func NewBaseApp(store *StoreApp, decoder delphi.TxDecoder, handler delphi.Handler, debug bool) BaseApp {
	return BaseApp{StoreApp: store, decoder: decoder, handler: handler, debug: debug}
}

// DeliverTx runs the transaction against the block state.
func (b BaseApp) DeliverTx(raw []byte) abci.ResponseDeliverTx {
	tx, err := b.decode(raw)
	if err != nil {
		return delphi.DeliverTxError(err, b.debug)
	}
	ctx := b.txContext("deliver_tx", tx)
	var res *delphi.DeliverResult
	err = inCache(b.DeliverStore(), func(db delphi.KVStore) (err error) {
		res, err = b.handler.Deliver(ctx, db, tx)
		return err
	})
	if err != nil {
		delphi.GetLogger(ctx).Debug("tx rejected", "err", err)
	} else {
		delphi.GetLogger(ctx).Debug("tx delivered")
	}
	return delphi.DeliverOrError(res, err, b.debug)
}

// CheckTx runs the transaction against the mempool state.
func (b BaseApp) CheckTx(raw []byte) abci.ResponseCheckTx {
	tx, err := b.decode(raw)
	if err != nil {
		return delphi.CheckTxError(err, b.debug)
	}
	ctx := b.txContext("check_tx", tx)
	var res *delphi.CheckResult
	err = inCache(b.CheckStore(), func(db delphi.KVStore) (err error) {
		res, err = b.handler.Check(ctx, db, tx)
		return err
	})
	return delphi.CheckOrError(res, err, b.debug)
}

// inCache runs fn on a cache of db and writes the cache back only if fn
// succeeds.
func inCache(db delphi.CacheableKVStore, fn func(delphi.KVStore) error) error {
	cache := db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

// txContext is the block context with a logger naming the call, the height
// and the message path.
func (b BaseApp) txContext(call string, tx delphi.Tx) delphi.Context {
	ctx := b.BlockContext()
	height, _ := delphi.GetHeight(ctx)
	return delphi.WithLogInfo(ctx, "call", call, "height", height, "path", delphi.GetPath(tx))
}

// decode turns decoder panics into errors.
func (b BaseApp) decode(raw []byte) (tx delphi.Tx, err error) {
	defer errors.Recover(&err)
	return b.decoder(raw)
}
