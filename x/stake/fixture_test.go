package stake

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/app"
	"github.com/iov-one/delphi/gconf"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/store"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/x/ledger"
)

const ticker = "DLP"

var blockNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// env is a ledger with a registered token, a stake configuration and a
// router with all stake handlers registered. Every message is delivered
// on a cache that is written only if the handler succeeds.
type env struct {
	t      testing.TB
	db     delphi.CacheableKVStore
	tokens ledger.BaseController
	ctrl   BaseController
	auth   *weavetest.CtxAuth
	rt     *app.Router
	now    time.Time

	staker, arbiter, claimant, protocol delphi.Condition
}

func newEnv(t testing.TB, conf *Configuration) *env {
	t.Helper()
	db := store.MemStore()
	token := ledger.Token{Metadata: &delphi.Metadata{Schema: 1}, Name: "delphi", Decimals: 9}
	if _, err := ledger.NewTokenBucket().Put(db, []byte(ticker), &token); err != nil {
		t.Fatalf("cannot register token: %s", err)
	}
	if conf == nil {
		conf = defaultConf()
	}
	if err := gconf.Save(db, packageName, conf); err != nil {
		t.Fatalf("cannot save configuration: %s", err)
	}

	e := &env{
		t:        t,
		db:       db,
		tokens:   ledger.NewController(),
		ctrl:     NewController(),
		auth:     &weavetest.CtxAuth{Key: "auth"},
		now:      blockNow,
		staker:   weavetest.NewCondition(),
		arbiter:  weavetest.NewCondition(),
		claimant: weavetest.NewCondition(),
		protocol: weavetest.NewCondition(),
	}
	e.route(e.tokens)
	e.issue(e.staker.Address(), 1000)
	e.issue(e.claimant.Address(), 1000)
	return e
}

// route registers the stake handlers using given ledger controller.
func (e *env) route(tokens ledger.Controller) {
	e.rt = app.NewRouter()
	RegisterRoutes(e.rt, e.auth, tokens, e.protocol.Address())
}

func defaultConf() *Configuration {
	return &Configuration{
		Metadata:      &delphi.Metadata{Schema: 1},
		Owner:         weavetest.NewCondition().Address(),
		Distributions: DefaultDistributions(),
		SurplusPolicy: SurplusKeep,
		MaxDataSize:   256,
	}
}

func (e *env) issue(to delphi.Address, amount uint64) {
	e.t.Helper()
	if err := e.tokens.Issue(e.db, ticker, to, amount); err != nil {
		e.t.Fatalf("cannot issue: %s", err)
	}
}

func (e *env) ctx(signers ...delphi.Condition) delphi.Context {
	ctx := delphi.WithBlockTime(context.Background(), e.now)
	return e.auth.SetConditions(ctx, signers...)
}

// deliver runs the message through the router. State changes are kept
// only if the handler succeeds.
func (e *env) deliver(msg delphi.Msg, signers ...delphi.Condition) (*delphi.DeliverResult, error) {
	cache := e.db.CacheWrap()
	res, err := e.rt.Deliver(e.ctx(signers...), cache, &weavetest.Tx{Msg: msg})
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		e.t.Fatalf("cannot write cache: %s", err)
	}
	return res, nil
}

func (e *env) check(msg delphi.Msg, signers ...delphi.Condition) error {
	cache := e.db.CacheWrap()
	defer cache.Discard()
	_, err := e.rt.Check(e.ctx(signers...), cache, &weavetest.Tx{Msg: msg})
	return err
}

func (e *env) mustDeliver(msg delphi.Msg, signers ...delphi.Condition) *delphi.DeliverResult {
	e.t.Helper()
	res, err := e.deliver(msg, signers...)
	if err != nil {
		e.t.Fatalf("cannot deliver %T: %+v", msg, err)
	}
	return res
}

func (e *env) balance(addr delphi.Address) uint64 {
	e.t.Helper()
	b, err := e.tokens.Balance(e.db, ticker, addr)
	if err != nil {
		e.t.Fatalf("cannot read balance: %s", err)
	}
	return b
}

func (e *env) stake(stakeID []byte) *Stake {
	e.t.Helper()
	s, err := e.ctrl.GetStake(e.db, stakeID)
	if err != nil {
		e.t.Fatalf("cannot load stake: %s", err)
	}
	return s
}

func (e *env) claim(stakeID []byte, index uint64) *Claim {
	e.t.Helper()
	c, err := e.ctrl.GetClaim(e.db, stakeID, index)
	if err != nil {
		e.t.Fatalf("cannot load claim: %s", err)
	}
	return c
}

// createStake creates a stake of given amount and minimum fee. The release
// time is one day after the block time.
func (e *env) createStake(amount, minFee uint64) []byte {
	e.t.Helper()
	res := e.mustDeliver(&CreateStakeMsg{
		Metadata:    &delphi.Metadata{Schema: 1},
		Staker:      e.staker.Address(),
		Arbiter:     e.arbiter.Address(),
		Ticker:      ticker,
		Amount:      amount,
		MinFee:      minFee,
		Data:        "terms of service",
		ReleaseTime: delphi.AsUnixTime(e.now.Add(24 * time.Hour)),
	}, e.staker)
	return res.Data
}

// whitelist allows the claimant to open claims for an hour.
func (e *env) whitelist(stakeID []byte, claimant delphi.Address) {
	e.t.Helper()
	e.mustDeliver(&WhitelistClaimantMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: claimant,
		Deadline: delphi.AsUnixTime(e.now.Add(time.Hour)),
	}, e.staker)
}

// approve sets the allowance of the stake address to spend owner's tokens.
func (e *env) approve(owner delphi.Condition, stakeID []byte, amount uint64) {
	e.t.Helper()
	if err := e.tokens.Approve(e.db, ticker, owner.Address(), StakeAddress(stakeID), amount); err != nil {
		e.t.Fatalf("cannot approve: %s", err)
	}
}

// openClaim whitelists the claimant, approves the fee and opens a claim.
func (e *env) openClaim(stakeID []byte, amount, fee uint64) uint64 {
	e.t.Helper()
	e.whitelist(stakeID, e.claimant.Address())
	e.approve(e.claimant, stakeID, fee)
	res := e.mustDeliver(&OpenClaimMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: e.claimant.Address(),
		Amount:   amount,
		Fee:      fee,
	}, e.claimant)
	return orm.DecodeSequence(res.Data)
}

func (e *env) rule(stakeID []byte, index uint64, ruling uint32) {
	e.t.Helper()
	e.mustDeliver(&RuleOnClaimMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Ruling:     ruling,
	}, e.arbiter)
}
