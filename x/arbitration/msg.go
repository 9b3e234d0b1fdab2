package arbitration

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/x/stake"
)

const maxSaltSize = 64

func init() {
	delphi.RegisterMsg(&CommitVoteMsg{}, "delphi/arbitration/CommitVoteMsg")
	delphi.RegisterMsg(&RevealVoteMsg{}, "delphi/arbitration/RevealVoteMsg")
	delphi.RegisterMsg(&ResolveMsg{}, "delphi/arbitration/ResolveMsg")
	delphi.RegisterMsg(&UpdateConfigurationMsg{}, "delphi/arbitration/UpdateConfigurationMsg")
}

// CommitVoteMsg stores the hidden vote of an arbiter on a claim. Sending
// it again during the commit stage replaces the commitment.
type CommitVoteMsg struct {
	Metadata   *delphi.Metadata `json:"metadata"`
	StakeID    []byte           `json:"stake_id"`
	ClaimIndex uint64           `json:"claim_index"`
	Voter      delphi.Address   `json:"voter"`
	// Commitment is the CommitmentHash of the vote and a secret salt.
	Commitment []byte `json:"commitment"`
}

var _ delphi.Msg = (*CommitVoteMsg)(nil)

func (CommitVoteMsg) Path() string {
	return "arbitration/commit_vote"
}

func (m *CommitVoteMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "StakeID", orm.ValidateSequence(m.StakeID))
	errs = errors.AppendField(errs, "Voter", m.Voter.Validate())
	if len(m.Commitment) != hashSize {
		errs = errors.Append(errs, errors.Field("Commitment", errors.ErrInput, "must be %d bytes", hashSize))
	}
	return errs
}

func (m *CommitVoteMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *CommitVoteMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// RevealVoteMsg publishes a committed vote.
type RevealVoteMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	ClaimID  []byte           `json:"claim_id"`
	Voter    delphi.Address   `json:"voter"`
	Vote     uint32           `json:"vote"`
	Salt     []byte           `json:"salt"`
}

var _ delphi.Msg = (*RevealVoteMsg)(nil)

func (RevealVoteMsg) Path() string {
	return "arbitration/reveal_vote"
}

func (m *RevealVoteMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if _, _, err := stake.SplitClaimID(m.ClaimID); err != nil {
		errs = errors.AppendField(errs, "ClaimID", err)
	}
	errs = errors.AppendField(errs, "Voter", m.Voter.Validate())
	if len(m.Salt) == 0 || len(m.Salt) > maxSaltSize {
		errs = errors.Append(errs, errors.Field("Salt", errors.ErrInput, "must be 1 to %d bytes", maxSaltSize))
	}
	return errs
}

func (m *RevealVoteMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *RevealVoteMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// ResolveMsg ends the poll of a claim and delivers the ruling to the
// stake. Anyone can send it.
type ResolveMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	ClaimID  []byte           `json:"claim_id"`
}

var _ delphi.Msg = (*ResolveMsg)(nil)

func (ResolveMsg) Path() string {
	return "arbitration/resolve"
}

func (m *ResolveMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if _, _, err := stake.SplitClaimID(m.ClaimID); err != nil {
		errs = errors.AppendField(errs, "ClaimID", err)
	}
	return errs
}

func (m *ResolveMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *ResolveMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// UpdateConfigurationMsg patches the arbitration configuration. It must be
// signed by the configuration owner.
type UpdateConfigurationMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Patch    *Configuration   `json:"patch"`
}

var _ delphi.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "arbitration/update_configuration"
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
