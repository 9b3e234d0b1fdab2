package arbitration

import (
	"time"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/gconf"
)

const packageName = "arbitration"

// Configuration is the arbitration extension configuration stored with
// gconf.
type Configuration struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Owner    delphi.Address   `json:"owner"`
	// CommitStageLength is the duration of the commit stage in seconds.
	CommitStageLength int64 `json:"commit_stage_length"`
	// RevealStageLength is the duration of the reveal stage in seconds.
	RevealStageLength int64 `json:"reveal_stage_length"`
	// Options is the number of valid vote options. Votes are numbered
	// from zero.
	Options uint32 `json:"options"`
	// TieRuling is the ruling used when no option has strictly the most
	// revealed votes.
	TieRuling uint32 `json:"tie_ruling"`
	// EarlyResolve allows resolving a poll before the reveal stage ends
	// once every voter revealed.
	EarlyResolve bool `json:"early_resolve"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error)   { return delphi.Marshal(c) }
func (c *Configuration) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, c) }

func (c *Configuration) GetOwner() delphi.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	if c.CommitStageLength <= 0 {
		errs = errors.Append(errs, errors.Field("CommitStageLength", errors.ErrInput, "must be positive"))
	}
	if c.RevealStageLength <= 0 {
		errs = errors.Append(errs, errors.Field("RevealStageLength", errors.ErrInput, "must be positive"))
	}
	if c.Options < 2 {
		errs = errors.Append(errs, errors.Field("Options", errors.ErrInput, "at least two options required"))
	}
	if c.TieRuling >= c.Options {
		errs = errors.Append(errs, errors.Field("TieRuling", errors.ErrInput, "not a valid option"))
	}
	return errs
}

func (c *Configuration) commitStage() time.Duration {
	return time.Duration(c.CommitStageLength) * time.Second
}

func (c *Configuration) revealStage() time.Duration {
	return time.Duration(c.RevealStageLength) * time.Second
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
