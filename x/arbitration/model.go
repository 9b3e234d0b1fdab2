package arbitration

import (
	"encoding/binary"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
)

// Phase is the stage of a poll at a given time.
type Phase int

const (
	// CommitPhase accepts vote commitments.
	CommitPhase Phase = iota
	// RevealPhase accepts reveals of committed votes.
	RevealPhase
	// ResolvedPhase accepts no more votes. The poll can be resolved if it
	// was not already.
	ResolvedPhase
)

func (p Phase) String() string {
	switch p {
	case CommitPhase:
		return "commit"
	case RevealPhase:
		return "reveal"
	case ResolvedPhase:
		return "resolved"
	}
	return "unknown"
}

// Poll is the voting on a single claim. It is created by the first commit
// and stored under the claim id.
type Poll struct {
	Metadata  *delphi.Metadata `json:"metadata"`
	ClaimID   []byte           `json:"claim_id"`
	CommitEnd delphi.UnixTime  `json:"commit_end"`
	RevealEnd delphi.UnixTime  `json:"reveal_end"`
	Resolved  bool             `json:"resolved"`
	Ruling    uint32           `json:"ruling"`
	// Voters is the number of voters that committed.
	Voters uint32 `json:"voters"`
	// Revealed is the number of voters that revealed.
	Revealed uint32 `json:"revealed"`
}

var _ orm.Model = (*Poll)(nil)

func (p *Poll) Marshal() ([]byte, error)   { return delphi.Marshal(p) }
func (p *Poll) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, p) }

func (p *Poll) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", p.Metadata.Validate())
	if len(p.ClaimID) != 16 {
		errs = errors.Append(errs, errors.Field("ClaimID", errors.ErrInput, "must be 16 bytes"))
	}
	if p.RevealEnd < p.CommitEnd {
		errs = errors.Append(errs, errors.Field("RevealEnd", errors.ErrState, "before commit end"))
	}
	if p.Revealed > p.Voters {
		errs = errors.Append(errs, errors.Field("Revealed", errors.ErrState, "more reveals than voters"))
	}
	return errs
}

// Phase returns the stage of the poll at given time.
func (p *Poll) Phase(now delphi.UnixTime) Phase {
	switch {
	case p.Resolved:
		return ResolvedPhase
	case now < p.CommitEnd:
		return CommitPhase
	case now < p.RevealEnd:
		return RevealPhase
	default:
		return ResolvedPhase
	}
}

// Commitment is the hidden vote of a single voter. It is stored under the
// claim id followed by the voter address.
type Commitment struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Hash     []byte           `json:"hash"`
	Revealed bool             `json:"revealed"`
	// Vote is set on reveal.
	Vote uint32 `json:"vote"`
}

var _ orm.Model = (*Commitment)(nil)

func (c *Commitment) Marshal() ([]byte, error)   { return delphi.Marshal(c) }
func (c *Commitment) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, c) }

func (c *Commitment) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if len(c.Hash) != hashSize {
		errs = errors.Append(errs, errors.Field("Hash", errors.ErrInput, "must be %d bytes", hashSize))
	}
	return errs
}

// Tally is the number of revealed votes for a single option. It is stored
// under the claim id followed by the big endian option.
type Tally struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Count    uint64           `json:"count"`
}

var _ orm.Model = (*Tally)(nil)

func (t *Tally) Marshal() ([]byte, error)   { return delphi.Marshal(t) }
func (t *Tally) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, t) }

func (t *Tally) Validate() error {
	return errors.Field("Metadata", t.Metadata.Validate(), "invalid")
}

const hashSize = 32

// CommitmentKey returns the key the commitment of a voter is stored under.
func CommitmentKey(claimID []byte, voter delphi.Address) []byte {
	key := make([]byte, 0, len(claimID)+len(voter))
	key = append(key, claimID...)
	return append(key, voter...)
}

// TallyKey returns the key the tally of an option is stored under.
func TallyKey(claimID []byte, option uint32) []byte {
	key := make([]byte, len(claimID)+4)
	copy(key, claimID)
	binary.BigEndian.PutUint32(key[len(claimID):], option)
	return key
}

// NewPollBucket returns a bucket for polls stored under the claim id.
func NewPollBucket() orm.ModelBucket {
	return orm.NewModelBucket("poll", &Poll{})
}

// NewCommitmentBucket returns a bucket for vote commitments.
func NewCommitmentBucket() orm.ModelBucket {
	return orm.NewModelBucket("commitment", &Commitment{})
}

// NewTallyBucket returns a bucket for revealed vote tallies.
func NewTallyBucket() orm.ModelBucket {
	return orm.NewModelBucket("tally", &Tally{})
}
