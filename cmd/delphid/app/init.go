package app

import (
	"encoding/json"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/crypto"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x/arbitration"
	"github.com/iov-one/delphi/x/ledger"
	"github.com/iov-one/delphi/x/registry"
	"github.com/iov-one/delphi/x/stake"
)

// DevGenesis returns the application state of a development chain. The
// owner receives the whole supply of the token and owns both extension
// configurations. Every arbiter is listed in the registry.
func DevGenesis(ticker string, owner delphi.Address, supply uint64, arbiters ...delphi.Address) (delphi.Options, error) {
	listings := make([]registry.GenesisListing, 0, len(arbiters))
	for _, a := range arbiters {
		listings = append(listings, registry.GenesisListing{Address: a, Name: a.String()})
	}
	state := map[string]interface{}{
		"ledger": ledger.Genesis{
			Tokens: []ledger.GenesisToken{
				{Ticker: ticker, Name: "delphi " + ticker, Decimals: 9},
			},
			Balances: []ledger.GenesisBalance{
				{Ticker: ticker, Address: owner, Amount: supply},
			},
		},
		"registry": listings,
		"conf": map[string]interface{}{
			"stake": stake.Configuration{
				Metadata:      &delphi.Metadata{Schema: 1},
				Owner:         owner,
				Distributions: stake.DefaultDistributions(),
				SurplusPolicy: stake.SurplusKeep,
				MaxDataSize:   1024,
			},
			"arbitration": arbitration.Configuration{
				Metadata:          &delphi.Metadata{Schema: 1},
				Owner:             owner,
				CommitStageLength: 24 * 60 * 60,
				RevealStageLength: 24 * 60 * 60,
				Options:           4,
				TieRuling:         1,
			},
		},
	}

	opts := make(delphi.Options)
	for name, section := range state {
		raw, err := json.Marshal(section)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "genesis %s: %s", name, err)
		}
		opts[name] = raw
	}
	return opts, nil
}

// KeyFile is the JSON format private keys are stored in.
type KeyFile struct {
	Address delphi.Address     `json:"address"`
	Pubkey  *crypto.PublicKey  `json:"pub_key"`
	Secret  *crypto.PrivateKey `json:"secret"`
}

// GenerateKey returns a new ed25519 key together with its address.
func GenerateKey() KeyFile {
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	return KeyFile{
		Address: pubKey.Address(),
		Pubkey:  pubKey,
		Secret:  privKey,
	}
}
