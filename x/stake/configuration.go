package stake

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/gconf"
)

const packageName = "stake"

// Recipient names the destination of a settlement pot.
type Recipient string

const (
	// ToClaimant sends the pot to the claimant.
	ToClaimant Recipient = "claimant"
	// ToStake returns the pot to the claimable stake.
	ToStake Recipient = "stake"
	// ToArbiter sends the pot to the arbiter of the stake.
	ToArbiter Recipient = "arbiter"
	// ToBurn destroys the pot.
	ToBurn Recipient = "burn"
)

// Validate returns an error if the recipient is not one of the known
// destinations.
func (r Recipient) Validate() error {
	switch r {
	case ToClaimant, ToStake, ToArbiter, ToBurn:
		return nil
	}
	return errors.Wrapf(errors.ErrInput, "unknown recipient %q", r)
}

// Surplus policies decide what happens to the part of the claimant fee that
// exceeds the minimum fee of the stake.
const (
	SurplusKeep   = "keep"
	SurplusRefund = "refund"
)

// Distribution declares where each pot of a claim goes when it was ruled
// with given ruling.
type Distribution struct {
	Ruling      uint32    `json:"ruling"`
	Amount      Recipient `json:"amount"`
	ClaimantFee Recipient `json:"claimant_fee"`
	StakerFee   Recipient `json:"staker_fee"`
}

// Validate returns an error if any of the recipients is unknown.
func (d Distribution) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Amount", d.Amount.Validate())
	errs = errors.AppendField(errs, "ClaimantFee", d.ClaimantFee.Validate())
	errs = errors.AppendField(errs, "StakerFee", d.StakerFee.Validate())
	return errs
}

// Configuration is the stake extension configuration stored with gconf.
type Configuration struct {
	Metadata *delphi.Metadata `json:"metadata"`
	// Owner is allowed to update the configuration.
	Owner delphi.Address `json:"owner"`
	// Distributions is the distribution table, one entry per valid
	// ruling.
	Distributions []Distribution `json:"distributions"`
	SurplusPolicy string         `json:"surplus_policy"`
	// MaxDataSize limits the length of the stake and claim data fields.
	MaxDataSize uint32 `json:"max_data_size"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

// DefaultDistributions returns the distribution table for the four vote
// options used by the arbitration protocol: 0 claim justified, 1 claim not
// justified, 2 collusion, 3 invalid claim.
func DefaultDistributions() []Distribution {
	return []Distribution{
		{Ruling: 0, Amount: ToClaimant, ClaimantFee: ToClaimant, StakerFee: ToArbiter},
		{Ruling: 1, Amount: ToStake, ClaimantFee: ToArbiter, StakerFee: ToStake},
		{Ruling: 2, Amount: ToBurn, ClaimantFee: ToArbiter, StakerFee: ToBurn},
		{Ruling: 3, Amount: ToStake, ClaimantFee: ToClaimant, StakerFee: ToStake},
	}
}

func (c *Configuration) Marshal() ([]byte, error)   { return delphi.Marshal(c) }
func (c *Configuration) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, c) }

func (c *Configuration) GetOwner() delphi.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	if len(c.Distributions) == 0 {
		errs = errors.Append(errs, errors.Field("Distributions", ErrInvalidConfiguration, "required"))
	}
	seen := make(map[uint32]bool, len(c.Distributions))
	for _, d := range c.Distributions {
		if seen[d.Ruling] {
			errs = errors.Append(errs, errors.Field("Distributions", ErrInvalidConfiguration, "ruling %d declared twice", d.Ruling))
		}
		seen[d.Ruling] = true
		errs = errors.AppendField(errs, "Distributions", d.Validate())
	}
	switch c.SurplusPolicy {
	case SurplusKeep, SurplusRefund:
	default:
		errs = errors.Append(errs, errors.Field("SurplusPolicy", ErrInvalidConfiguration, "unknown policy %q", c.SurplusPolicy))
	}
	if c.MaxDataSize == 0 {
		errs = errors.Append(errs, errors.Field("MaxDataSize", ErrInvalidConfiguration, "must be positive"))
	}
	return errs
}

// Distribution returns the distribution table entry for given ruling.
func (c *Configuration) Distribution(ruling uint32) (Distribution, bool) {
	for _, d := range c.Distributions {
		if d.Ruling == ruling {
			return d, true
		}
	}
	return Distribution{}, false
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

// LoadConfiguration returns the stake configuration stored in the database.
func LoadConfiguration(db gconf.ReadStore) (*Configuration, error) {
	return loadConf(db)
}
