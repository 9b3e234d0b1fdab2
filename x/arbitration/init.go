package arbitration

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/gconf"
	"github.com/iov-one/delphi/x/stake"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ delphi.Initializer = Initializer{}

// FromGenesis stores the arbitration configuration declared under
// "conf.arbitration". When the stake configuration is already loaded, every
// vote option must have an entry in its distribution table, so that any
// ruling a poll can produce can be settled.
func (Initializer) FromGenesis(opts delphi.Options, db delphi.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(db, opts, packageName, &conf); err != nil {
		return err
	}
	stakeConf, err := stake.LoadConfiguration(db)
	switch {
	case errors.ErrNotFound.Is(err):
		return nil
	case err != nil:
		return err
	}
	return checkDistributions(&conf, stakeConf)
}

func checkDistributions(conf *Configuration, stakeConf *stake.Configuration) error {
	for opt := uint32(0); opt < conf.Options; opt++ {
		if _, ok := stakeConf.Distribution(opt); !ok {
			return errors.Wrapf(stake.ErrInvalidConfiguration, "vote option %d has no stake distribution", opt)
		}
	}
	return nil
}
