package arbitration

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
)

// Controller gives read access to the vote ledger.
type Controller struct {
	polls       orm.ModelBucket
	commitments orm.ModelBucket
	tallies     orm.ModelBucket
}

// NewController returns a controller operating on the default buckets.
func NewController() Controller {
	return Controller{
		polls:       NewPollBucket(),
		commitments: NewCommitmentBucket(),
		tallies:     NewTallyBucket(),
	}
}

// GetPoll returns the poll of given claim or ErrNotFound if no vote was
// committed yet.
func (c Controller) GetPoll(db delphi.ReadOnlyKVStore, claimID []byte) (*Poll, error) {
	var p Poll
	if err := c.polls.One(db, claimID, &p); err != nil {
		return nil, errors.Wrapf(err, "poll %X", claimID)
	}
	return &p, nil
}

// GetCommitment returns the commitment of the voter or ErrNotFound.
func (c Controller) GetCommitment(db delphi.ReadOnlyKVStore, claimID []byte, voter delphi.Address) (*Commitment, error) {
	var cm Commitment
	if err := c.commitments.One(db, CommitmentKey(claimID, voter), &cm); err != nil {
		return nil, errors.Wrapf(err, "commitment of %s", voter)
	}
	return &cm, nil
}

// RevealedTally returns the number of revealed votes for the option.
func (c Controller) RevealedTally(db delphi.ReadOnlyKVStore, claimID []byte, option uint32) (uint64, error) {
	var t Tally
	switch err := c.tallies.One(db, TallyKey(claimID, option), &t); {
	case err == nil:
		return t.Count, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "tally")
	}
}

// Phase returns the stage of the poll of given claim at given time. A claim
// without a poll is in the commit phase, because the first commit starts the
// poll.
func (c Controller) Phase(db delphi.ReadOnlyKVStore, claimID []byte, now delphi.UnixTime) (Phase, error) {
	p, err := c.GetPoll(db, claimID)
	switch {
	case errors.ErrNotFound.Is(err):
		return CommitPhase, nil
	case err != nil:
		return 0, err
	}
	return p.Phase(now), nil
}

func (c Controller) addVote(db delphi.KVStore, claimID []byte, option uint32) error {
	count, err := c.RevealedTally(db, claimID, option)
	if err != nil {
		return err
	}
	t := Tally{Metadata: &delphi.Metadata{Schema: 1}, Count: count + 1}
	if _, err := c.tallies.Put(db, TallyKey(claimID, option), &t); err != nil {
		return errors.Wrap(err, "save tally")
	}
	return nil
}

// winner returns the option with strictly the most revealed votes. It
// returns false if there is no such option.
func (c Controller) winner(db delphi.ReadOnlyKVStore, claimID []byte, options uint32) (uint32, bool, error) {
	var (
		best  uint32
		most  uint64
		ties  bool
		found bool
	)
	for opt := uint32(0); opt < options; opt++ {
		n, err := c.RevealedTally(db, claimID, opt)
		if err != nil {
			return 0, false, err
		}
		switch {
		case n == 0:
		case n > most:
			best, most, ties, found = opt, n, false, true
		case n == most:
			ties = true
		}
	}
	return best, found && !ties, nil
}
