package app

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// blockState is the committed tree together with the two scratch-pads the
// running block writes to. Deliver changes are flushed on commit, check
// changes are always dropped.
type blockState struct {
	tree    delphi.CommitKVStore
	deliver delphi.KVCacheWrap
	check   delphi.KVCacheWrap
}

func openState(tree delphi.CommitKVStore) (*blockState, error) {
	if err := tree.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	s := &blockState{tree: tree}
	s.reset()
	return s, nil
}

func (s *blockState) reset() {
	s.deliver = s.tree.CacheWrap()
	s.check = s.tree.CacheWrap()
}

func (s *blockState) version() (delphi.CommitID, error) {
	return s.tree.LatestVersion()
}

func (s *blockState) commit() (delphi.CommitID, error) {
	if err := s.deliver.Write(); err != nil {
		return delphi.CommitID{}, errors.Wrap(err, "flush block")
	}
	s.check.Discard()
	id, err := s.tree.Commit()
	if err != nil {
		return id, errors.Wrap(err, "commit")
	}
	s.reset()
	return id, nil
}

// committed is a read only view of the last commit. It never sees the
// writes of the running block.
func (s *blockState) committed() delphi.ReadOnlyKVStore {
	return s.tree.CacheWrap()
}

// The chain id lives under a key no bucket can produce.
var chainIDKey = []byte("_dl:chainID")

func readChainID(db delphi.ReadOnlyKVStore) (string, error) {
	raw, err := db.Get(chainIDKey)
	if err != nil {
		return "", errors.Wrap(err, "read chain id")
	}
	return string(raw), nil
}

// writeChainID records the chain id once. A second call fails.
func writeChainID(db delphi.KVStore, chainID string) error {
	if !delphi.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	switch ok, err := db.Has(chainIDKey); {
	case err != nil:
		return errors.Wrap(err, "read chain id")
	case ok:
		return errors.Wrap(errors.ErrUnauthorized, "chain id is set at genesis only")
	}
	return errors.Wrap(db.Set(chainIDKey, []byte(chainID)), "write chain id")
}
