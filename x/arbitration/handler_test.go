package arbitration

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/app"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/gconf"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/store"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/weavetest/assert"
	"github.com/iov-one/delphi/x"
	"github.com/iov-one/delphi/x/ledger"
	"github.com/iov-one/delphi/x/registry"
	"github.com/iov-one/delphi/x/stake"
	"github.com/stretchr/testify/mock"
)

const ticker = "DLP"

var blockNow = time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC)

// env routes the stake and arbitration handlers the way an application
// does. Rulings of resolved polls are dispatched through the same router.
type env struct {
	t      testing.TB
	db     delphi.CacheableKVStore
	tokens ledger.BaseController
	auth   *weavetest.CtxAuth
	rt     *app.Router
	ctrl   Controller
	now    time.Time

	staker, arbiter, claimant delphi.Condition
}

func newEnv(t testing.TB, conf *Configuration, arbiters registry.Lister) *env {
	t.Helper()
	db := store.MemStore()
	token := ledger.Token{Metadata: &delphi.Metadata{Schema: 1}, Name: "delphi", Decimals: 9}
	if _, err := ledger.NewTokenBucket().Put(db, []byte(ticker), &token); err != nil {
		t.Fatalf("cannot register token: %s", err)
	}
	stakeConf := stake.Configuration{
		Metadata:      &delphi.Metadata{Schema: 1},
		Owner:         weavetest.NewCondition().Address(),
		Distributions: stake.DefaultDistributions(),
		SurplusPolicy: stake.SurplusKeep,
		MaxDataSize:   128,
	}
	if err := gconf.Save(db, "stake", &stakeConf); err != nil {
		t.Fatalf("cannot save stake configuration: %s", err)
	}
	if conf == nil {
		conf = defaultConf()
	}
	if err := gconf.Save(db, packageName, conf); err != nil {
		t.Fatalf("cannot save configuration: %s", err)
	}
	if arbiters == nil {
		arbiters = registry.NewRegistry()
	}

	e := &env{
		t:        t,
		db:       db,
		tokens:   ledger.NewController(),
		auth:     &weavetest.CtxAuth{Key: "auth"},
		rt:       app.NewRouter(),
		ctrl:     NewController(),
		now:      blockNow,
		staker:   weavetest.NewCondition(),
		arbiter:  weavetest.NewCondition(),
		claimant: weavetest.NewCondition(),
	}
	auth := x.ChainAuth(e.auth, Authenticate{})
	stake.RegisterRoutes(e.rt, auth, e.tokens, ProtocolAddress())
	RegisterRoutes(e.rt, auth, stake.NewController(), arbiters, HandlerAsExecutor(e.rt))

	for _, c := range []delphi.Condition{e.staker, e.claimant} {
		if err := e.tokens.Issue(db, ticker, c.Address(), 1000); err != nil {
			t.Fatalf("cannot issue: %s", err)
		}
	}
	return e
}

func defaultConf() *Configuration {
	return &Configuration{
		Metadata:          &delphi.Metadata{Schema: 1},
		Owner:             weavetest.NewCondition().Address(),
		CommitStageLength: 3600,
		RevealStageLength: 3600,
		Options:           4,
		TieRuling:         3,
	}
}

func (e *env) deliver(msg delphi.Msg, signers ...delphi.Condition) (*delphi.DeliverResult, error) {
	ctx := delphi.WithBlockTime(context.Background(), e.now)
	ctx = e.auth.SetConditions(ctx, signers...)
	cache := e.db.CacheWrap()
	res, err := e.rt.Deliver(ctx, cache, &weavetest.Tx{Msg: msg})
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		e.t.Fatalf("cannot write cache: %s", err)
	}
	return res, nil
}

func (e *env) mustDeliver(msg delphi.Msg, signers ...delphi.Condition) *delphi.DeliverResult {
	e.t.Helper()
	res, err := e.deliver(msg, signers...)
	if err != nil {
		e.t.Fatalf("cannot deliver %T: %+v", msg, err)
	}
	return res
}

// openClaim creates a stake arbitrated by given address and opens a claim
// against it. It returns the stake ID and the claim index.
func (e *env) openClaim(arbiter delphi.Address) ([]byte, uint64) {
	e.t.Helper()
	stakeID := e.mustDeliver(&stake.CreateStakeMsg{
		Metadata:    &delphi.Metadata{Schema: 1},
		Staker:      e.staker.Address(),
		Arbiter:     arbiter,
		Ticker:      ticker,
		Amount:      100,
		MinFee:      5,
		ReleaseTime: delphi.AsUnixTime(e.now.Add(24 * time.Hour)),
	}, e.staker).Data
	e.mustDeliver(&stake.WhitelistClaimantMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: e.claimant.Address(),
		Deadline: delphi.AsUnixTime(e.now.Add(time.Hour)),
	}, e.staker)
	if err := e.tokens.Approve(e.db, ticker, e.claimant.Address(), stake.StakeAddress(stakeID), 10); err != nil {
		e.t.Fatalf("cannot approve: %s", err)
	}
	res := e.mustDeliver(&stake.OpenClaimMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: e.claimant.Address(),
		Amount:   20,
		Fee:      10,
	}, e.claimant)
	return stakeID, orm.DecodeSequence(res.Data)
}

func (e *env) commit(stakeID []byte, index uint64, voter delphi.Condition, vote uint32, salt string) error {
	_, err := e.deliver(&CommitVoteMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Voter:      voter.Address(),
		Commitment: CommitmentHash(vote, []byte(salt)),
	}, voter)
	return err
}

func (e *env) reveal(claimID []byte, voter delphi.Condition, vote uint32, salt string) error {
	_, err := e.deliver(&RevealVoteMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		ClaimID:  claimID,
		Voter:    voter.Address(),
		Vote:     vote,
		Salt:     []byte(salt),
	}, voter)
	return err
}

func (e *env) resolve(claimID []byte) (*delphi.DeliverResult, error) {
	return e.deliver(&ResolveMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		ClaimID:  claimID,
	}, weavetest.NewCondition())
}

func (e *env) tally(claimID []byte, option uint32) uint64 {
	e.t.Helper()
	n, err := e.ctrl.RevealedTally(e.db, claimID, option)
	if err != nil {
		e.t.Fatalf("cannot read tally: %s", err)
	}
	return n
}

func (e *env) poll(claimID []byte) *Poll {
	e.t.Helper()
	p, err := e.ctrl.GetPoll(e.db, claimID)
	if err != nil {
		e.t.Fatalf("cannot load poll: %s", err)
	}
	return p
}

func (e *env) listArbiters(cs ...delphi.Condition) {
	e.t.Helper()
	for _, c := range cs {
		l := registry.Listing{Metadata: &delphi.Metadata{Schema: 1}, Name: "arbiter"}
		if _, err := registry.NewBucket().Put(e.db, c.Address(), &l); err != nil {
			e.t.Fatalf("cannot list arbiter: %s", err)
		}
	}
}

func TestRevealVote(t *testing.T) {
	for vote := uint32(0); vote < 4; vote++ {
		e := newEnv(t, nil, nil)
		stakeID, index := e.openClaim(e.arbiter.Address())
		claimID := stake.ClaimID(stakeID, index)

		assert.Nil(t, e.commit(stakeID, index, e.arbiter, vote, "s3cr3t"))
		e.now = e.now.Add(time.Hour)
		assert.Nil(t, e.reveal(claimID, e.arbiter, vote, "s3cr3t"))

		for opt := uint32(0); opt < 4; opt++ {
			want := uint64(0)
			if opt == vote {
				want = 1
			}
			assert.Equal(t, want, e.tally(claimID, opt))
		}
		cm, err := e.ctrl.GetCommitment(e.db, claimID, e.arbiter.Address())
		assert.Nil(t, err)
		assert.Equal(t, true, cm.Revealed)
		assert.Equal(t, vote, cm.Vote)
		assert.Equal(t, uint32(1), e.poll(claimID).Revealed)
	}
}

func TestRevealVoteTwice(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 1, "salt"))
	e.now = e.now.Add(time.Hour)
	assert.Nil(t, e.reveal(claimID, e.arbiter, 1, "salt"))
	assert.IsErr(t, ErrAlreadyRevealed, e.reveal(claimID, e.arbiter, 1, "salt"))
	// Different arguments are refused before the hash is compared.
	assert.IsErr(t, ErrAlreadyRevealed, e.reveal(claimID, e.arbiter, 2, "pepper"))
	assert.IsErr(t, ErrAlreadyRevealed, e.reveal(claimID, e.arbiter, 1, "pepper"))

	for opt := uint32(0); opt < 4; opt++ {
		want := uint64(0)
		if opt == 1 {
			want = 1
		}
		assert.Equal(t, want, e.tally(claimID, opt))
	}
	assert.Equal(t, uint32(1), e.poll(claimID).Revealed)
	cm, err := e.ctrl.GetCommitment(e.db, claimID, e.arbiter.Address())
	assert.Nil(t, err)
	assert.Equal(t, uint32(1), cm.Vote)
}

func TestRevealVoteMismatch(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 2, "salt"))
	e.now = e.now.Add(time.Hour)
	assert.IsErr(t, ErrCommitmentMismatch, e.reveal(claimID, e.arbiter, 1, "salt"))
	assert.IsErr(t, ErrCommitmentMismatch, e.reveal(claimID, e.arbiter, 2, "pepper"))
	// Someone that did not commit has nothing to reveal.
	other := weavetest.NewCondition()
	assert.IsErr(t, errors.ErrNotFound, e.reveal(claimID, other, 2, "salt"))
	assert.Nil(t, e.reveal(claimID, e.arbiter, 2, "salt"))
}

func TestRevealVoteOutOfRange(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 4, "salt"))
	e.now = e.now.Add(time.Hour)
	assert.IsErr(t, errors.ErrInput, e.reveal(claimID, e.arbiter, 4, "salt"))
}

func TestPollPhases(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	phase, err := e.ctrl.Phase(e.db, claimID, delphi.AsUnixTime(e.now))
	assert.Nil(t, err)
	assert.Equal(t, CommitPhase, phase)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 0, "salt"))
	p := e.poll(claimID)
	assert.Equal(t, delphi.AsUnixTime(blockNow.Add(time.Hour)), p.CommitEnd)
	assert.Equal(t, delphi.AsUnixTime(blockNow.Add(2*time.Hour)), p.RevealEnd)

	assert.IsErr(t, errors.ErrState, e.reveal(claimID, e.arbiter, 0, "salt"))
	_, err = e.resolve(claimID)
	assert.IsErr(t, errors.ErrState, err)

	// The commit stage ends exactly at CommitEnd.
	e.now = blockNow.Add(time.Hour)
	assert.IsErr(t, errors.ErrExpired, e.commit(stakeID, index, e.arbiter, 1, "salt"))
	_, err = e.resolve(claimID)
	assert.IsErr(t, errors.ErrState, err)

	e.now = blockNow.Add(2 * time.Hour)
	assert.IsErr(t, errors.ErrExpired, e.reveal(claimID, e.arbiter, 0, "salt"))
	phase, err = e.ctrl.Phase(e.db, claimID, delphi.AsUnixTime(e.now))
	assert.Nil(t, err)
	assert.Equal(t, ResolvedPhase, phase)
}

func TestCommitVoteReplacesCommitment(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 0, "first"))
	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 1, "second"))
	assert.Equal(t, uint32(1), e.poll(claimID).Voters)

	e.now = e.now.Add(time.Hour)
	assert.IsErr(t, ErrCommitmentMismatch, e.reveal(claimID, e.arbiter, 0, "first"))
	assert.Nil(t, e.reveal(claimID, e.arbiter, 1, "second"))
}

func TestCommitVoteEligibility(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	stranger := weavetest.NewCondition()

	assert.IsErr(t, errors.ErrUnauthorized, e.commit(stakeID, index, stranger, 0, "salt"))
	// A vote must be signed by the voter.
	_, err := e.deliver(&CommitVoteMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Voter:      e.arbiter.Address(),
		Commitment: CommitmentHash(0, []byte("salt")),
	}, stranger)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.IsErr(t, stake.ErrUnknownClaim, e.commit(stakeID, index+1, e.arbiter, 0, "salt"))

	// Claims against a protocol arbitrated stake accept votes of every
	// listed arbiter.
	listed := weavetest.NewCondition()
	e.listArbiters(listed)
	protoStake, protoIndex := e.openClaim(ProtocolAddress())
	assert.Nil(t, e.commit(protoStake, protoIndex, listed, 0, "salt"))
	assert.IsErr(t, errors.ErrUnauthorized, e.commit(protoStake, protoIndex, stranger, 0, "salt"))
	assert.IsErr(t, errors.ErrUnauthorized, e.commit(stakeID, index, listed, 0, "salt"))
}

func TestCommitVoteRuledClaim(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	e.mustDeliver(&stake.RuleOnClaimMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Ruling:     1,
	}, e.arbiter)
	assert.IsErr(t, stake.ErrAlreadyRuled, e.commit(stakeID, index, e.arbiter, 0, "salt"))
}

type listerMock struct {
	mock.Mock
}

func (m *listerMock) IsListed(db delphi.ReadOnlyKVStore, addr delphi.Address) (bool, error) {
	args := m.Called(addr)
	return args.Bool(0), args.Error(1)
}

func TestCommitVoteListerFailure(t *testing.T) {
	voter := weavetest.NewCondition()
	lister := &listerMock{}
	lister.On("IsListed", voter.Address()).Return(false, errors.Wrap(errors.ErrDatabase, "unavailable"))

	e := newEnv(t, nil, lister)
	stakeID, index := e.openClaim(ProtocolAddress())
	assert.IsErr(t, errors.ErrDatabase, e.commit(stakeID, index, voter, 0, "salt"))
	lister.AssertExpectations(t)
}

func TestResolve(t *testing.T) {
	cases := map[string]struct {
		votes      []uint32
		reveal     []bool
		wantRuling uint32
	}{
		"majority": {
			votes:      []uint32{0, 0, 1},
			reveal:     []bool{true, true, true},
			wantRuling: 0,
		},
		"unrevealed votes are not counted": {
			votes:      []uint32{2, 1, 1},
			reveal:     []bool{true, false, false},
			wantRuling: 2,
		},
		"tie": {
			votes:      []uint32{0, 1, 2},
			reveal:     []bool{true, true, false},
			wantRuling: 3,
		},
		"nothing revealed": {
			votes:      []uint32{0, 0, 0},
			reveal:     []bool{false, false, false},
			wantRuling: 3,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t, nil, nil)
			voters := []delphi.Condition{weavetest.NewCondition(), weavetest.NewCondition(), weavetest.NewCondition()}
			e.listArbiters(voters...)
			stakeID, index := e.openClaim(ProtocolAddress())
			claimID := stake.ClaimID(stakeID, index)

			for i, v := range voters {
				assert.Nil(t, e.commit(stakeID, index, v, tc.votes[i], "salt"))
			}
			e.now = e.now.Add(time.Hour)
			for i, v := range voters {
				if tc.reveal[i] {
					assert.Nil(t, e.reveal(claimID, v, tc.votes[i], "salt"))
				}
			}
			e.now = e.now.Add(time.Hour)

			res, err := e.resolve(claimID)
			assert.Nil(t, err)
			v, _ := res.TagValue("arbitration.action")
			assert.Equal(t, "resolve", v)

			p := e.poll(claimID)
			assert.Equal(t, true, p.Resolved)
			assert.Equal(t, tc.wantRuling, p.Ruling)
			assert.Equal(t, uint32(3), p.Voters)

			claim, err := stake.NewController().GetClaim(e.db, stakeID, index)
			assert.Nil(t, err)
			assert.Equal(t, true, claim.Ruled)
			assert.Equal(t, tc.wantRuling, claim.Ruling)

			_, err = e.resolve(claimID)
			assert.IsErr(t, errors.ErrState, err)
		})
	}
}

func TestResolveDirectArbiter(t *testing.T) {
	// The protocol may rule on claims of stakes with a dedicated arbiter
	// as well, once the arbiter voted through a poll.
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 1, "salt"))
	e.now = e.now.Add(time.Hour)
	assert.Nil(t, e.reveal(claimID, e.arbiter, 1, "salt"))
	e.now = e.now.Add(time.Hour)
	_, err := e.resolve(claimID)
	assert.Nil(t, err)

	claim, err := stake.NewController().GetClaim(e.db, stakeID, index)
	assert.Nil(t, err)
	assert.Equal(t, uint32(1), claim.Ruling)
}

func TestResolveEarly(t *testing.T) {
	conf := defaultConf()
	conf.EarlyResolve = true
	e := newEnv(t, conf, nil)
	voters := []delphi.Condition{weavetest.NewCondition(), weavetest.NewCondition()}
	e.listArbiters(voters...)
	stakeID, index := e.openClaim(ProtocolAddress())
	claimID := stake.ClaimID(stakeID, index)

	for _, v := range voters {
		assert.Nil(t, e.commit(stakeID, index, v, 1, "salt"))
	}
	e.now = e.now.Add(time.Hour)
	assert.Nil(t, e.reveal(claimID, voters[0], 1, "salt"))
	_, err := e.resolve(claimID)
	assert.IsErr(t, errors.ErrState, err)

	assert.Nil(t, e.reveal(claimID, voters[1], 1, "salt"))
	_, err = e.resolve(claimID)
	assert.Nil(t, err)
	assert.Equal(t, uint32(1), e.poll(claimID).Ruling)
}

func TestResolveWithoutPoll(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	_, err := e.resolve(stake.ClaimID(stakeID, index))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestDirectRulingClosesPoll(t *testing.T) {
	e := newEnv(t, nil, nil)
	stakeID, index := e.openClaim(e.arbiter.Address())
	claimID := stake.ClaimID(stakeID, index)

	assert.Nil(t, e.commit(stakeID, index, e.arbiter, 0, "salt"))
	e.mustDeliver(&stake.RuleOnClaimMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Ruling:     1,
	}, e.arbiter)

	e.now = e.now.Add(time.Hour)
	assert.IsErr(t, stake.ErrAlreadyRuled, e.reveal(claimID, e.arbiter, 0, "salt"))
	assert.Equal(t, uint64(0), e.tally(claimID, 0))
	assert.Equal(t, uint32(0), e.poll(claimID).Revealed)

	// The poll can be closed right away and takes over the direct ruling.
	res, err := e.resolve(claimID)
	assert.Nil(t, err)
	direct, _ := res.TagValue("arbitration.direct")
	assert.Equal(t, "true", direct)

	p := e.poll(claimID)
	assert.Equal(t, true, p.Resolved)
	assert.Equal(t, uint32(1), p.Ruling)

	claim, err := stake.NewController().GetClaim(e.db, stakeID, index)
	assert.Nil(t, err)
	assert.Equal(t, uint32(1), claim.Ruling)

	_, err = e.resolve(claimID)
	assert.IsErr(t, errors.ErrState, err)
}
