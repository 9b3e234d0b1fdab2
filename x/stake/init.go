package stake

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/gconf"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ delphi.Initializer = Initializer{}

// FromGenesis stores the stake configuration declared under
// "conf.stake". The configuration is required.
func (Initializer) FromGenesis(opts delphi.Options, db delphi.KVStore) error {
	var conf Configuration
	return gconf.InitConfig(db, opts, packageName, &conf)
}
