package app

import (
	"encoding/json"
	"time"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Engine drives an ABCI application in process. The caller declares the
// time of every block, which makes the engine usable from the command line
// and from tests without a consensus engine.
//
// Use of the engine follows the block lifecycle:
//
//	e.BeginBlock(now)
//	res, err := e.DeliverTx(raw)
//	e.Commit()
type Engine struct {
	chainID string
	height  int64
	app     abci.Application
	inBlock bool
}

// NewEngine returns an engine that continues from the last height committed
// by given application.
func NewEngine(app abci.Application, chainID string) *Engine {
	info := app.Info(abci.RequestInfo{})
	return &Engine{
		chainID: chainID,
		height:  info.LastBlockHeight,
		app:     app,
	}
}

// Height returns the height of the last committed block.
func (e *Engine) Height() int64 {
	return e.height
}

// InitChain serializes given application state to JSON and loads it as the
// genesis. Loading a genesis creates a block.
func (e *Engine) InitChain(now time.Time, appState interface{}) (err error) {
	raw, err := json.Marshal(appState)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot serialize genesis: %s", err)
	}
	e.BeginBlock(now)
	defer func() {
		if err != nil {
			// The genesis block is abandoned.
			e.inBlock = false
			e.height--
			return
		}
		_, err = e.Commit()
	}()
	defer errors.Recover(&err)
	e.app.InitChain(abci.RequestInitChain{
		Time:          now,
		ChainId:       e.chainID,
		AppStateBytes: raw,
	})
	return nil
}

// BeginBlock opens the next block with given time. It panics if the
// previous block was not committed.
func (e *Engine) BeginBlock(now time.Time) {
	if e.inBlock {
		panic("block already started")
	}
	e.inBlock = true
	e.height++
	e.app.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{
			ChainID: e.chainID,
			Height:  e.height,
			Time:    now,
		},
	})
}

// CheckTx validates a serialized transaction without modifying the block
// state.
func (e *Engine) CheckTx(tx []byte) (*delphi.CheckResult, error) {
	resp := e.app.CheckTx(tx)
	if resp.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(resp.Code, resp.Log)
	}
	return &delphi.CheckResult{Data: resp.Data, Log: resp.Log}, nil
}

// DeliverTx executes a serialized transaction within the current block.
func (e *Engine) DeliverTx(tx []byte) (*delphi.DeliverResult, error) {
	if !e.inBlock {
		return nil, errors.Wrap(errors.ErrState, "no block started")
	}
	return delphi.ParseDeliverOrError(e.app.DeliverTx(tx))
}

// Commit ends the current block and persists its state. It returns the new
// application hash.
func (e *Engine) Commit() (hash []byte, err error) {
	if !e.inBlock {
		return nil, errors.Wrap(errors.ErrState, "no block started")
	}
	defer errors.Recover(&err)
	e.app.EndBlock(abci.RequestEndBlock{Height: e.height})
	hash = e.app.Commit().Data
	e.inBlock = false
	return hash, nil
}

// Query returns all models matched by the query handler registered under
// given path. Only committed state is visible.
func (e *Engine) Query(path string, data []byte) ([]delphi.Model, error) {
	resp := e.app.Query(abci.RequestQuery{Path: path, Data: data})
	if resp.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(resp.Code, resp.Log)
	}
	var keys, values delphi.ResultSet
	if err := keys.Unmarshal(resp.Key); err != nil {
		return nil, errors.Wrap(err, "keys")
	}
	if err := values.Unmarshal(resp.Value); err != nil {
		return nil, errors.Wrap(err, "values")
	}
	return delphi.JoinResults(&keys, &values)
}

// QueryOne loads the first model found under given path into dest. It
// returns ErrNotFound if nothing matched.
func (e *Engine) QueryOne(path string, data []byte, dest delphi.Persistent) error {
	models, err := e.Query(path, data)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", path, data)
	}
	return dest.Unmarshal(models[0].Value)
}
