package stake

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/x/ledger"
)

func init() {
	delphi.RegisterMsg(&CreateStakeMsg{}, "delphi/stake/CreateStakeMsg")
	delphi.RegisterMsg(&WhitelistClaimantMsg{}, "delphi/stake/WhitelistClaimantMsg")
	delphi.RegisterMsg(&OpenClaimMsg{}, "delphi/stake/OpenClaimMsg")
	delphi.RegisterMsg(&RuleOnClaimMsg{}, "delphi/stake/RuleOnClaimMsg")
	delphi.RegisterMsg(&SettleClaimMsg{}, "delphi/stake/SettleClaimMsg")
	delphi.RegisterMsg(&IncreaseStakeMsg{}, "delphi/stake/IncreaseStakeMsg")
	delphi.RegisterMsg(&ExtendReleaseTimeMsg{}, "delphi/stake/ExtendReleaseTimeMsg")
	delphi.RegisterMsg(&WithdrawStakeMsg{}, "delphi/stake/WithdrawStakeMsg")
	delphi.RegisterMsg(&UpdateConfigurationMsg{}, "delphi/stake/UpdateConfigurationMsg")
}

// CreateStakeMsg locks the amount of staker's tokens as collateral of a
// new stake.
type CreateStakeMsg struct {
	Metadata    *delphi.Metadata `json:"metadata"`
	Staker      delphi.Address   `json:"staker"`
	Arbiter     delphi.Address   `json:"arbiter"`
	Ticker      string           `json:"ticker"`
	Amount      uint64           `json:"amount"`
	MinFee      uint64           `json:"min_fee"`
	Data        string           `json:"data"`
	ReleaseTime delphi.UnixTime  `json:"release_time"`
}

var _ delphi.Msg = (*CreateStakeMsg)(nil)

func (CreateStakeMsg) Path() string {
	return "stake/create"
}

func (m *CreateStakeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Staker", m.Staker.Validate())
	errs = errors.AppendField(errs, "Arbiter", m.Arbiter.Validate())
	if m.Staker.Equals(m.Arbiter) {
		errs = errors.Append(errs, errors.Field("Arbiter", ErrInvalidConfiguration, "staker cannot be the arbiter"))
	}
	if !ledger.IsTicker(m.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", ErrInvalidConfiguration, "invalid ticker"))
	}
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", ErrInvalidConfiguration, "must be positive"))
	}
	errs = errors.AppendField(errs, "ReleaseTime", m.ReleaseTime.Validate())
	return errs
}

func (m *CreateStakeMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *CreateStakeMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// WhitelistClaimantMsg allows the claimant to open claims against the stake
// until the deadline. Sending it again overwrites the deadline.
type WhitelistClaimantMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	StakeID  []byte           `json:"stake_id"`
	Claimant delphi.Address   `json:"claimant"`
	Deadline delphi.UnixTime  `json:"deadline"`
}

var _ delphi.Msg = (*WhitelistClaimantMsg)(nil)

func (WhitelistClaimantMsg) Path() string {
	return "stake/whitelist_claimant"
}

func (m *WhitelistClaimantMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	errs = errors.AppendField(errs, "Claimant", m.Claimant.Validate())
	errs = errors.AppendField(errs, "Deadline", m.Deadline.Validate())
	return errs
}

func (m *WhitelistClaimantMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *WhitelistClaimantMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// OpenClaimMsg opens a claim against the collateral of a stake.
type OpenClaimMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	StakeID  []byte           `json:"stake_id"`
	Claimant delphi.Address   `json:"claimant"`
	Amount   uint64           `json:"amount"`
	Fee      uint64           `json:"fee"`
	Data     string           `json:"data"`
}

var _ delphi.Msg = (*OpenClaimMsg)(nil)

func (OpenClaimMsg) Path() string {
	return "stake/open_claim"
}

func (m *OpenClaimMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	errs = errors.AppendField(errs, "Claimant", m.Claimant.Validate())
	return errs
}

func (m *OpenClaimMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *OpenClaimMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// RuleOnClaimMsg records the arbiter's ruling for a claim.
type RuleOnClaimMsg struct {
	Metadata   *delphi.Metadata `json:"metadata"`
	StakeID    []byte           `json:"stake_id"`
	ClaimIndex uint64           `json:"claim_index"`
	Ruling     uint32           `json:"ruling"`
}

var _ delphi.Msg = (*RuleOnClaimMsg)(nil)

func (RuleOnClaimMsg) Path() string {
	return "stake/rule_on_claim"
}

func (m *RuleOnClaimMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	return errs
}

func (m *RuleOnClaimMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *RuleOnClaimMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// SettleClaimMsg distributes the funds reserved by a ruled claim. Anyone
// can send it.
type SettleClaimMsg struct {
	Metadata   *delphi.Metadata `json:"metadata"`
	StakeID    []byte           `json:"stake_id"`
	ClaimIndex uint64           `json:"claim_index"`
}

var _ delphi.Msg = (*SettleClaimMsg)(nil)

func (SettleClaimMsg) Path() string {
	return "stake/settle_claim"
}

func (m *SettleClaimMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	return errs
}

func (m *SettleClaimMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *SettleClaimMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// IncreaseStakeMsg adds more of the staker's tokens to the collateral.
type IncreaseStakeMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	StakeID  []byte           `json:"stake_id"`
	Amount   uint64           `json:"amount"`
}

var _ delphi.Msg = (*IncreaseStakeMsg)(nil)

func (IncreaseStakeMsg) Path() string {
	return "stake/increase"
}

func (m *IncreaseStakeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", ErrInvalidConfiguration, "must be positive"))
	}
	return errs
}

func (m *IncreaseStakeMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *IncreaseStakeMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// ExtendReleaseTimeMsg moves the release time of a stake further into the
// future.
type ExtendReleaseTimeMsg struct {
	Metadata    *delphi.Metadata `json:"metadata"`
	StakeID     []byte           `json:"stake_id"`
	ReleaseTime delphi.UnixTime  `json:"release_time"`
}

var _ delphi.Msg = (*ExtendReleaseTimeMsg)(nil)

func (ExtendReleaseTimeMsg) Path() string {
	return "stake/extend_release_time"
}

func (m *ExtendReleaseTimeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	errs = errors.AppendField(errs, "ReleaseTime", m.ReleaseTime.Validate())
	return errs
}

func (m *ExtendReleaseTimeMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *ExtendReleaseTimeMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// WithdrawStakeMsg returns the claimable stake to the staker once the
// stake is released.
type WithdrawStakeMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	StakeID  []byte           `json:"stake_id"`
}

var _ delphi.Msg = (*WithdrawStakeMsg)(nil)

func (WithdrawStakeMsg) Path() string {
	return "stake/withdraw"
}

func (m *WithdrawStakeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	return errs
}

func (m *WithdrawStakeMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *WithdrawStakeMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// UpdateConfigurationMsg patches the stake configuration. It must be signed
// by the configuration owner.
type UpdateConfigurationMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Patch    *Configuration   `json:"patch"`
}

var _ delphi.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "stake/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return nil
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }
