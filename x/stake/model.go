package stake

import (
	"encoding/binary"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/x/ledger"
)

// Stake is the collateral locked by a staker. It is stored under the
// sequence id assigned on creation.
type Stake struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Staker   delphi.Address   `json:"staker"`
	Arbiter  delphi.Address   `json:"arbiter"`
	Ticker   string           `json:"ticker"`
	// MinFee is the lowest fee a claimant must pay to open a claim.
	MinFee      uint64          `json:"min_fee"`
	Data        string          `json:"data"`
	ReleaseTime delphi.UnixTime `json:"release_time"`
	// ClaimableStake is the part of the collateral not reserved by any
	// open claim.
	ClaimableStake uint64 `json:"claimable_stake"`
	OpenClaims     uint64 `json:"open_claims"`
	// NumClaims is the index the next claim is stored under.
	NumClaims uint64 `json:"num_claims"`
	// Address holds the ledger balance of this stake.
	Address delphi.Address `json:"address"`
}

var _ orm.Model = (*Stake)(nil)

func (s *Stake) Marshal() ([]byte, error)   { return delphi.Marshal(s) }
func (s *Stake) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, s) }

func (s *Stake) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", s.Metadata.Validate())
	errs = errors.AppendField(errs, "Staker", s.Staker.Validate())
	errs = errors.AppendField(errs, "Arbiter", s.Arbiter.Validate())
	errs = errors.AppendField(errs, "Address", s.Address.Validate())
	if !ledger.IsTicker(s.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrInput, "invalid ticker"))
	}
	errs = errors.AppendField(errs, "ReleaseTime", s.ReleaseTime.Validate())
	if s.OpenClaims > s.NumClaims {
		errs = errors.Append(errs, errors.Field("OpenClaims", errors.ErrState, "more open claims than claims"))
	}
	return errs
}

// StakeAddress returns the address that holds the collateral of the stake
// with given id.
func StakeAddress(stakeID []byte) delphi.Address {
	return delphi.NewCondition("stake", "seq", stakeID).Address()
}

// Claim is a request to be paid out of the collateral of a stake. It is
// stored under its ClaimID.
type Claim struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Claimant delphi.Address   `json:"claimant"`
	Amount   uint64           `json:"amount"`
	// Fee is paid by the claimant. The staker matches it from the
	// collateral.
	Fee uint64 `json:"fee"`
	// SurplusFee is the part of the fee above the minimum fee. It is
	// recorded on settlement when the surplus is refunded.
	SurplusFee       uint64 `json:"surplus_fee"`
	Data             string `json:"data"`
	Ruling           uint32 `json:"ruling"`
	Ruled            bool   `json:"ruled"`
	SettlementFailed bool   `json:"settlement_failed"`
	Settled          bool   `json:"settled"`
}

var _ orm.Model = (*Claim)(nil)

func (c *Claim) Marshal() ([]byte, error)   { return delphi.Marshal(c) }
func (c *Claim) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, c) }

func (c *Claim) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Claimant", c.Claimant.Validate())
	if c.SurplusFee > c.Fee {
		errs = errors.Append(errs, errors.Field("SurplusFee", errors.ErrState, "greater than fee"))
	}
	if c.Settled && !c.Ruled {
		errs = errors.Append(errs, errors.Field("Settled", errors.ErrState, "claim not ruled"))
	}
	return errs
}

// reserved returns the amount of collateral held back for this claim: the
// claimed amount plus the fee matched by the staker.
func (c *Claim) reserved() uint64 {
	return c.Amount + c.Fee
}

// ClaimID returns the identifier of the claim with given index. It is the
// stake id followed by the big endian claim index.
func ClaimID(stakeID []byte, index uint64) []byte {
	id := make([]byte, 16)
	copy(id, stakeID)
	binary.BigEndian.PutUint64(id[8:], index)
	return id
}

// SplitClaimID returns the stake id and the claim index encoded in given
// claim id.
func SplitClaimID(claimID []byte) ([]byte, uint64, error) {
	if len(claimID) != 16 {
		return nil, 0, errors.Wrap(errors.ErrInput, "claim id must be 16 bytes")
	}
	return claimID[:8], binary.BigEndian.Uint64(claimID[8:]), nil
}

// WhitelistEntry allows a claimant to open claims against a stake until the
// deadline. It is stored under the stake id followed by the claimant
// address.
type WhitelistEntry struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Deadline delphi.UnixTime  `json:"deadline"`
}

var _ orm.Model = (*WhitelistEntry)(nil)

func (w *WhitelistEntry) Marshal() ([]byte, error)   { return delphi.Marshal(w) }
func (w *WhitelistEntry) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, w) }

func (w *WhitelistEntry) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", w.Metadata.Validate())
	errs = errors.AppendField(errs, "Deadline", w.Deadline.Validate())
	return errs
}

// WhitelistKey returns the key a whitelist entry is stored under.
func WhitelistKey(stakeID []byte, claimant delphi.Address) []byte {
	key := make([]byte, 0, len(stakeID)+len(claimant))
	key = append(key, stakeID...)
	return append(key, claimant...)
}

// NewStakeBucket returns a bucket for stakes. Stakes are indexed by the
// staker and the arbiter.
func NewStakeBucket() orm.ModelBucket {
	return orm.NewModelBucket("stake", &Stake{},
		orm.WithIDSequence(orm.NewSequence("stake", "id")),
		orm.WithIndex("staker", stakerIndex, false),
		orm.WithIndex("arbiter", arbiterIndex, false),
	)
}

func stakerIndex(obj orm.Model) ([]byte, error) {
	s, ok := obj.(*Stake)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj)
	}
	return s.Staker, nil
}

func arbiterIndex(obj orm.Model) ([]byte, error) {
	s, ok := obj.(*Stake)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj)
	}
	return s.Arbiter, nil
}

// NewClaimBucket returns a bucket for claims, stored under their ClaimID.
// Claims are indexed by the claimant.
func NewClaimBucket() orm.ModelBucket {
	return orm.NewModelBucket("claim", &Claim{},
		orm.WithIndex("claimant", claimantIndex, false),
	)
}

func claimantIndex(obj orm.Model) ([]byte, error) {
	c, ok := obj.(*Claim)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj)
	}
	return c.Claimant, nil
}

// NewWhitelistBucket returns a bucket for whitelist entries.
func NewWhitelistBucket() orm.ModelBucket {
	return orm.NewModelBucket("whitelist", &WhitelistEntry{})
}
