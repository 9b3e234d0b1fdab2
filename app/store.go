package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// StoreApp is the storage half of an ABCI application: it owns the state,
// loads the genesis, answers queries and commits blocks. BaseApp embeds it
// and adds the transaction handling.
//
// The ABCI calls that carry no user input (Info, InitChain, BeginBlock,
// EndBlock and Commit) panic on failure. There is nothing a node can do to
// continue from a broken state.
type StoreApp struct {
	name    string
	chainID string
	logger  log.Logger
	state   *blockState
	init    delphi.Initializer
	router  delphi.QueryRouter

	// base is valid for the life of the app, block for the running block.
	base  delphi.Context
	block delphi.Context
}

// NewStoreApp opens the state held by store and returns an app continuing
// from its last commit. It panics if the state cannot be read.
func NewStoreApp(name string, store delphi.CommitKVStore,
	router delphi.QueryRouter, base delphi.Context) *StoreApp {
	state, err := openState(store)
	if err != nil {
		panic(err)
	}
	s := &StoreApp{
		name:   name,
		state:  state,
		router: router,
		base:   base,
	}
	s.WithLogger(log.NewNopLogger())

	chainID, err := readChainID(state.deliver)
	if err != nil {
		panic(err)
	}
	if chainID != "" {
		s.chainID = chainID
		s.base = delphi.WithChainID(s.base, chainID)
	}
	last, err := state.version()
	if err != nil {
		panic(err)
	}
	s.block = delphi.WithHeight(s.base, last.Version)
	return s
}

// WithInit sets what loads the genesis application state.
func (s *StoreApp) WithInit(init delphi.Initializer) *StoreApp {
	s.init = init
	return s
}

// WithLogger sets the logger of the app and of every context it creates.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.logger = logger
	s.base = delphi.WithLogger(s.base, logger)
	return s
}

// BlockContext is the context of the running block.
func (s *StoreApp) BlockContext() delphi.Context {
	return s.block
}

// DeliverStore is the scratch-pad of the running block.
func (s *StoreApp) DeliverStore() delphi.CacheableKVStore {
	return s.state.deliver
}

// CheckStore is the scratch-pad mempool checks run against.
func (s *StoreApp) CheckStore() delphi.CacheableKVStore {
	return s.state.check
}

func (s *StoreApp) loadGenesis(chainID string, raw []byte) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "genesis already loaded for chain %s", s.chainID)
	}
	if len(raw) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state not set in genesis")
	}
	var opts delphi.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return errors.Wrapf(errors.ErrInput, "app state: %s", err)
	}
	// A rejected genesis leaves nothing in the block state.
	err := inCache(s.state.deliver, func(db delphi.KVStore) error {
		if err := writeChainID(db, chainID); err != nil {
			return err
		}
		if s.init == nil {
			return nil
		}
		return s.init.FromGenesis(opts, db)
	})
	if err != nil {
		return err
	}
	s.chainID = chainID
	s.base = delphi.WithChainID(s.base, chainID)
	return nil
}

// Info reports the last committed height and app hash.
func (s *StoreApp) Info(abci.RequestInfo) abci.ResponseInfo {
	last, err := s.state.version()
	if err != nil {
		panic(err)
	}
	s.logger.Info("Info synced", "height", last.Version, "hash", fmt.Sprintf("%X", last.Hash))
	return abci.ResponseInfo{
		Data:             s.name,
		Version:          delphi.Version(),
		LastBlockHeight:  last.Version,
		LastBlockAppHash: last.Hash,
	}
}

// SetOption is not supported.
func (s *StoreApp) SetOption(abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

// Query runs the handler registered for the path against the last
// committed state. The path is "/<bucket>" or "/<bucket>/<index>",
// optionally followed by "?<modifier>". Key and Value of the response are
// ResultSets of the same length.
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	path, mod := req.Path, ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, mod = path[:i], path[i+1:]
	}
	qh := s.router.Handler(path)
	if qh == nil {
		return queryError(errors.Wrapf(errors.ErrNotFound, "unexpected query path: %v", req.Path))
	}
	last, err := s.state.version()
	if err != nil {
		return queryError(err)
	}
	models, err := qh.Query(s.state.committed(), mod, req.Data)
	if err != nil {
		return queryError(err)
	}
	res := abci.ResponseQuery{Height: last.Version}
	if res.Key, err = delphi.ResultsFromKeys(models).Marshal(); err != nil {
		return queryError(err)
	}
	if res.Value, err = delphi.ResultsFromValues(models).Marshal(); err != nil {
		return queryError(err)
	}
	return res
}

func queryError(err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, false)
	return abci.ResponseQuery{Code: code, Log: log}
}

// InitChain loads the application state of the genesis. It runs once, when
// the chain starts for the first time.
func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := s.loadGenesis(req.ChainId, req.AppStateBytes); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock starts the block context from the header height and time.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	ctx := delphi.WithHeight(s.base, req.Header.Height)
	s.block = delphi.WithBlockTime(ctx, req.Header.Time)
	return abci.ResponseBeginBlock{}
}

// EndBlock does nothing, the validator set never changes.
func (s *StoreApp) EndBlock(abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}

// Commit writes the block to the tree and returns the new app hash.
func (s *StoreApp) Commit() abci.ResponseCommit {
	id, err := s.state.commit()
	if err != nil {
		panic(err)
	}
	s.logger.Debug("Commit synced", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return abci.ResponseCommit{Data: id.Hash}
}
