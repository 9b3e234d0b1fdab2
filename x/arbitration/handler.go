package arbitration

import (
	"bytes"
	"encoding/hex"
	"strconv"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/gconf"
	"github.com/iov-one/delphi/x"
	"github.com/iov-one/delphi/x/registry"
	"github.com/iov-one/delphi/x/stake"
)

const (
	tagClaimID = "arbitration.claim_id"
	tagAction  = "arbitration.action"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. The executor is used to deliver rulings to the stake extension,
// usually the router the stake handlers are registered with.
func RegisterRoutes(r delphi.Registry, auth x.Authenticator, stakes stake.Controller, arbiters registry.Lister, exec Executor) {
	ctrl := NewController()
	r.Handle(&CommitVoteMsg{}, &commitVoteHandler{auth: auth, stakes: stakes, arbiters: arbiters, ctrl: ctrl})
	r.Handle(&RevealVoteMsg{}, &revealVoteHandler{auth: auth, stakes: stakes, ctrl: ctrl})
	r.Handle(&ResolveMsg{}, &resolveHandler{stakes: stakes, ctrl: ctrl, exec: exec})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(packageName, &Configuration{}, auth))
}

// RegisterQuery exposes polls, commitments and tallies.
func RegisterQuery(qr delphi.QueryRouter) {
	NewPollBucket().Register("polls", qr)
	NewCommitmentBucket().Register("commitments", qr)
	NewTallyBucket().Register("tallies", qr)
}

func actionTags(claimID []byte, action string) *delphi.DeliverResult {
	res := &delphi.DeliverResult{}
	res.Tag(tagClaimID, hex.EncodeToString(claimID))
	res.Tag(tagAction, action)
	return res
}

type commitVoteHandler struct {
	auth     x.Authenticator
	stakes   stake.Controller
	arbiters registry.Lister
	ctrl     Controller
}

func (h *commitVoteHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *commitVoteHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, poll, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	claimID := poll.ClaimID
	switch _, err := h.ctrl.GetCommitment(db, claimID, msg.Voter); {
	case errors.ErrNotFound.Is(err):
		poll.Voters++
	case err != nil:
		return nil, err
	}
	if _, err := h.ctrl.polls.Put(db, claimID, poll); err != nil {
		return nil, errors.Wrap(err, "save poll")
	}
	cm := Commitment{
		Metadata: &delphi.Metadata{Schema: 1},
		Hash:     msg.Commitment,
	}
	if _, err := h.ctrl.commitments.Put(db, CommitmentKey(claimID, msg.Voter), &cm); err != nil {
		return nil, errors.Wrap(err, "save commitment")
	}

	delphi.GetLogger(ctx).Info("vote committed",
		"claim", hex.EncodeToString(claimID),
		"voter", msg.Voter,
		"commit_end", poll.CommitEnd)
	return actionTags(claimID, "commit"), nil
}

// validate returns the poll the commitment belongs to. The poll is created
// if this is the first commitment for the claim.
func (h *commitVoteHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*CommitVoteMsg, *Poll, error) {
	var msg CommitVoteMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Voter) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "voter signature missing")
	}
	s, err := h.stakes.GetStake(db, msg.StakeID)
	if err != nil {
		return nil, nil, err
	}
	claim, err := h.stakes.GetClaim(db, msg.StakeID, msg.ClaimIndex)
	if err != nil {
		return nil, nil, err
	}
	if claim.Ruled {
		return nil, nil, errors.Wrapf(stake.ErrAlreadyRuled, "ruling %d", claim.Ruling)
	}
	if err := h.eligible(db, s, msg.Voter); err != nil {
		return nil, nil, err
	}

	claimID := stake.ClaimID(msg.StakeID, msg.ClaimIndex)
	poll, err := h.ctrl.GetPoll(db, claimID)
	switch {
	case errors.ErrNotFound.Is(err):
		conf, err := loadConf(db)
		if err != nil {
			return nil, nil, err
		}
		commitEnd := delphi.Now(ctx).Add(conf.commitStage())
		poll = &Poll{
			Metadata:  &delphi.Metadata{Schema: 1},
			ClaimID:   claimID,
			CommitEnd: commitEnd,
			RevealEnd: commitEnd.Add(conf.revealStage()),
		}
	case err != nil:
		return nil, nil, err
	}
	if phase := poll.Phase(delphi.Now(ctx)); phase != CommitPhase {
		return nil, nil, errors.Wrapf(errors.ErrExpired, "poll is in the %s phase", phase)
	}
	return &msg, poll, nil
}

// eligible returns ErrUnauthorized unless the voter may vote on the claims
// of the stake. That is the stake arbiter or, for stakes arbitrated by the
// protocol, any listed arbiter.
func (h *commitVoteHandler) eligible(db delphi.ReadOnlyKVStore, s *stake.Stake, voter delphi.Address) error {
	if voter.Equals(s.Arbiter) {
		return nil
	}
	if !s.Arbiter.Equals(ProtocolAddress()) {
		return errors.Wrap(errors.ErrUnauthorized, "voter is not the stake arbiter")
	}
	listed, err := h.arbiters.IsListed(db, voter)
	if err != nil {
		return err
	}
	if !listed {
		return errors.Wrap(errors.ErrUnauthorized, "voter is not a listed arbiter")
	}
	return nil
}

type revealVoteHandler struct {
	auth   x.Authenticator
	stakes stake.Controller
	ctrl   Controller
}

func (h *revealVoteHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *revealVoteHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, poll, cm, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.addVote(db, msg.ClaimID, msg.Vote); err != nil {
		return nil, err
	}
	cm.Revealed = true
	cm.Vote = msg.Vote
	if _, err := h.ctrl.commitments.Put(db, CommitmentKey(msg.ClaimID, msg.Voter), cm); err != nil {
		return nil, errors.Wrap(err, "save commitment")
	}
	poll.Revealed++
	if _, err := h.ctrl.polls.Put(db, msg.ClaimID, poll); err != nil {
		return nil, errors.Wrap(err, "save poll")
	}

	delphi.GetLogger(ctx).Info("vote revealed",
		"claim", hex.EncodeToString(msg.ClaimID),
		"voter", msg.Voter,
		"vote", msg.Vote)
	res := actionTags(msg.ClaimID, "reveal")
	res.Tag("arbitration.vote", strconv.FormatUint(uint64(msg.Vote), 10))
	return res, nil
}

func (h *revealVoteHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*RevealVoteMsg, *Poll, *Commitment, error) {
	var msg RevealVoteMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Voter) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "voter signature missing")
	}
	poll, err := h.ctrl.GetPoll(db, msg.ClaimID)
	if err != nil {
		return nil, nil, nil, err
	}
	switch phase := poll.Phase(delphi.Now(ctx)); phase {
	case CommitPhase:
		return nil, nil, nil, errors.Wrap(errors.ErrState, "commit phase not over")
	case ResolvedPhase:
		return nil, nil, nil, errors.Wrap(errors.ErrExpired, "reveal phase is over")
	}
	// The arbiter may have ruled directly while the poll was open.
	claim, err := pollClaim(db, h.stakes, msg.ClaimID)
	if err != nil {
		return nil, nil, nil, err
	}
	if claim.Ruled {
		return nil, nil, nil, errors.Wrapf(stake.ErrAlreadyRuled, "ruling %d", claim.Ruling)
	}
	cm, err := h.ctrl.GetCommitment(db, msg.ClaimID, msg.Voter)
	if err != nil {
		return nil, nil, nil, err
	}
	if cm.Revealed {
		return nil, nil, nil, errors.Wrapf(ErrAlreadyRevealed, "voted %d", cm.Vote)
	}
	if !bytes.Equal(cm.Hash, CommitmentHash(msg.Vote, msg.Salt)) {
		return nil, nil, nil, errors.Wrap(ErrCommitmentMismatch, "vote and salt do not match the commitment")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.Vote >= conf.Options {
		return nil, nil, nil, errors.Wrapf(errors.ErrInput, "vote must be lower than %d", conf.Options)
	}
	return &msg, poll, cm, nil
}

type resolveHandler struct {
	stakes stake.Controller
	ctrl   Controller
	exec   Executor
}

func (h *resolveHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *resolveHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, poll, claim, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if claim.Ruled {
		return h.close(ctx, db, msg.ClaimID, poll, claim.Ruling)
	}
	ruling, ok, err := h.ctrl.winner(db, msg.ClaimID, conf.Options)
	if err != nil {
		return nil, err
	}
	if !ok {
		ruling = conf.TieRuling
	}
	poll.Resolved = true
	poll.Ruling = ruling
	if _, err := h.ctrl.polls.Put(db, msg.ClaimID, poll); err != nil {
		return nil, errors.Wrap(err, "save poll")
	}

	// Validated by the message.
	stakeID, index, _ := stake.SplitClaimID(msg.ClaimID)
	rule := &stake.RuleOnClaimMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Ruling:     ruling,
	}
	if _, err := h.exec(withProtocol(ctx), db, rule); err != nil {
		return nil, errors.Wrap(err, "rule on claim")
	}

	delphi.GetLogger(ctx).Info("poll resolved",
		"claim", hex.EncodeToString(msg.ClaimID),
		"ruling", ruling,
		"tie", !ok)
	res := actionTags(msg.ClaimID, "resolve")
	res.Tag("arbitration.ruling", strconv.FormatUint(uint64(ruling), 10))
	return res, nil
}

// close marks the poll of a claim the arbiter ruled on directly as
// resolved with that ruling. Nothing is dispatched.
func (h *resolveHandler) close(ctx delphi.Context, db delphi.KVStore, claimID []byte, poll *Poll, ruling uint32) (*delphi.DeliverResult, error) {
	poll.Resolved = true
	poll.Ruling = ruling
	if _, err := h.ctrl.polls.Put(db, claimID, poll); err != nil {
		return nil, errors.Wrap(err, "save poll")
	}
	delphi.GetLogger(ctx).Info("poll closed by a direct ruling",
		"claim", hex.EncodeToString(claimID),
		"ruling", ruling)
	res := actionTags(claimID, "resolve")
	res.Tag("arbitration.ruling", strconv.FormatUint(uint64(ruling), 10))
	res.Tag("arbitration.direct", "true")
	return res, nil
}

func (h *resolveHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*ResolveMsg, *Poll, *stake.Claim, *Configuration, error) {
	var msg ResolveMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	poll, err := h.ctrl.GetPoll(db, msg.ClaimID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if poll.Resolved {
		return nil, nil, nil, nil, errors.Wrapf(errors.ErrState, "already resolved with %d", poll.Ruling)
	}
	claim, err := pollClaim(db, h.stakes, msg.ClaimID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	// A poll of a claim that was already ruled on can be closed at any time.
	if claim.Ruled {
		return &msg, poll, claim, conf, nil
	}
	now := delphi.Now(ctx)
	switch poll.Phase(now) {
	case ResolvedPhase:
	case RevealPhase:
		if !conf.EarlyResolve || poll.Revealed < poll.Voters {
			return nil, nil, nil, nil, errors.Wrapf(errors.ErrState, "reveal phase ends at %s", poll.RevealEnd)
		}
	default:
		return nil, nil, nil, nil, errors.Wrapf(errors.ErrState, "commit phase ends at %s", poll.CommitEnd)
	}
	return &msg, poll, claim, conf, nil
}

// pollClaim loads the claim a poll is held for.
func pollClaim(db delphi.ReadOnlyKVStore, stakes stake.Controller, claimID []byte) (*stake.Claim, error) {
	stakeID, index, err := stake.SplitClaimID(claimID)
	if err != nil {
		return nil, err
	}
	return stakes.GetClaim(db, stakeID, index)
}
