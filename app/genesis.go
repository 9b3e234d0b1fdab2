package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// Genesis file format, designed to be overlayed with tendermint genesis
type Genesis struct {
	ChainID  string         `json:"chain_id"`
	AppState delphi.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	if !delphi.IsValidChainID(gen.ChainID) {
		return gen, errors.Wrapf(errors.ErrInput, "invalid chain id %q", gen.ChainID)
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...delphi.Initializer) delphi.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []delphi.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts delphi.Options, kv delphi.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
