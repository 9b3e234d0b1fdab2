package stake

import (
	"testing"
	"time"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/weavetest/assert"
	"github.com/iov-one/delphi/x/ledger"
)

func TestCreateStake(t *testing.T) {
	cases := map[string]struct {
		mutate  func(e *env, msg *CreateStakeMsg)
		signer  func(e *env) delphi.Condition
		wantErr *errors.Error
	}{
		"success": {},
		"staker did not sign": {
			signer:  func(e *env) delphi.Condition { return e.arbiter },
			wantErr: errors.ErrUnauthorized,
		},
		"zero amount": {
			mutate:  func(e *env, msg *CreateStakeMsg) { msg.Amount = 0 },
			wantErr: ErrInvalidConfiguration,
		},
		"arbiter is the staker": {
			mutate:  func(e *env, msg *CreateStakeMsg) { msg.Arbiter = e.staker.Address() },
			wantErr: ErrInvalidConfiguration,
		},
		"unknown ticker": {
			mutate:  func(e *env, msg *CreateStakeMsg) { msg.Ticker = "ETH" },
			wantErr: ErrInvalidConfiguration,
		},
		"release time in the past": {
			mutate:  func(e *env, msg *CreateStakeMsg) { msg.ReleaseTime = delphi.AsUnixTime(e.now) },
			wantErr: ErrInvalidConfiguration,
		},
		"data too long": {
			mutate:  func(e *env, msg *CreateStakeMsg) { msg.Data = string(make([]byte, 257)) },
			wantErr: errors.ErrInput,
		},
		"collateral exceeds balance": {
			mutate:  func(e *env, msg *CreateStakeMsg) { msg.Amount = 1001 },
			wantErr: ledger.ErrTransferFailed,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t, nil)
			msg := &CreateStakeMsg{
				Metadata:    &delphi.Metadata{Schema: 1},
				Staker:      e.staker.Address(),
				Arbiter:     e.arbiter.Address(),
				Ticker:      ticker,
				Amount:      100,
				MinFee:      5,
				Data:        "my stake",
				ReleaseTime: delphi.AsUnixTime(e.now.Add(time.Hour)),
			}
			if tc.mutate != nil {
				tc.mutate(e, msg)
			}
			signer := e.staker
			if tc.signer != nil {
				signer = tc.signer(e)
			}

			res, err := e.deliver(msg, signer)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				assert.Equal(t, uint64(1000), e.balance(e.staker.Address()))
				return
			}

			assert.Equal(t, weavetest.SequenceID(1), res.Data)
			s := e.stake(res.Data)
			assert.Equal(t, uint64(100), s.ClaimableStake)
			assert.Equal(t, uint64(5), s.MinFee)
			assert.Equal(t, uint64(0), s.NumClaims)
			assert.Equal(t, StakeAddress(res.Data), s.Address)
			assert.Equal(t, uint64(100), e.balance(s.Address))
			assert.Equal(t, uint64(900), e.balance(e.staker.Address()))
		})
	}
}

func TestStakeIDsAreUnique(t *testing.T) {
	e := newEnv(t, nil)
	first := e.createStake(10, 1)
	second := e.createStake(10, 1)
	assert.Equal(t, weavetest.SequenceID(1), first)
	assert.Equal(t, weavetest.SequenceID(2), second)
	if StakeAddress(first).Equals(StakeAddress(second)) {
		t.Fatal("two stakes share an address")
	}
}

func TestWhitelistClaimant(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	claimant := e.claimant.Address()

	msg := &WhitelistClaimantMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: claimant,
		Deadline: delphi.AsUnixTime(e.now.Add(time.Hour)),
	}
	_, err := e.deliver(msg, e.claimant)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = e.ctrl.GetWhitelist(e.db, stakeID, claimant)
	assert.IsErr(t, errors.ErrNotFound, err)

	e.mustDeliver(msg, e.staker)
	w, err := e.ctrl.GetWhitelist(e.db, stakeID, claimant)
	assert.Nil(t, err)
	assert.Equal(t, msg.Deadline, w.Deadline)

	// Whitelisting again overwrites the deadline.
	msg.Deadline = delphi.AsUnixTime(e.now.Add(2 * time.Hour))
	e.mustDeliver(msg, e.staker)
	w, err = e.ctrl.GetWhitelist(e.db, stakeID, claimant)
	assert.Nil(t, err)
	assert.Equal(t, msg.Deadline, w.Deadline)

	msg.StakeID = weavetest.SequenceID(42)
	_, err = e.deliver(msg, e.staker)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestOpenClaim(t *testing.T) {
	cases := map[string]struct {
		// prepare is called with the stake already created and the
		// claimant whitelisted.
		prepare  func(e *env, stakeID []byte)
		signer   func(e *env) delphi.Condition
		claimant func(e *env) delphi.Condition
		// skipWhitelist leaves the claimant out of the whitelist.
		skipWhitelist bool
		amount        uint64
		fee           uint64
		wantErr       *errors.Error
	}{
		"success": {
			amount: 1,
			fee:    10,
		},
		"fee equal to minimum": {
			amount: 50,
			fee:    5,
		},
		"reserve all claimable stake": {
			amount: 90,
			fee:    10,
		},
		"claimant did not sign": {
			signer:  func(e *env) delphi.Condition { return e.staker },
			amount:  1,
			fee:     10,
			wantErr: errors.ErrUnauthorized,
		},
		"claimant not whitelisted": {
			claimant:      func(e *env) delphi.Condition { return weavetest.NewCondition() },
			skipWhitelist: true,
			amount:        1,
			fee:           10,
			wantErr:       errors.ErrUnauthorized,
		},
		"whitelist deadline passed": {
			prepare: func(e *env, stakeID []byte) {
				e.now = e.now.Add(time.Hour + time.Second)
			},
			amount:  1,
			fee:     10,
			wantErr: errors.ErrExpired,
		},
		"whitelist deadline is inclusive": {
			prepare: func(e *env, stakeID []byte) {
				e.now = e.now.Add(time.Hour)
			},
			amount: 1,
			fee:    10,
		},
		"staker cannot claim": {
			claimant: func(e *env) delphi.Condition { return e.staker },
			amount:   1,
			fee:      10,
			wantErr:  errors.ErrUnauthorized,
		},
		"arbiter cannot claim": {
			claimant: func(e *env) delphi.Condition { return e.arbiter },
			amount:   1,
			fee:      10,
			wantErr:  errors.ErrUnauthorized,
		},
		"fee too low": {
			amount:  1,
			fee:     4,
			wantErr: ErrFeeTooLow,
		},
		"fee too low with zero amount": {
			fee:     0,
			wantErr: ErrFeeTooLow,
		},
		"amount and fee exceed claimable stake": {
			amount:  91,
			fee:     10,
			wantErr: ErrInsufficientStake,
		},
		"overflowing amount": {
			amount:  ^uint64(0),
			fee:     10,
			wantErr: ErrInsufficientStake,
		},
		"fee not approved": {
			prepare: func(e *env, stakeID []byte) {
				e.approve(e.claimant, stakeID, 9)
			},
			amount:  1,
			fee:     10,
			wantErr: ledger.ErrTransferFailed,
		},
		"fee exceeds balance": {
			prepare: func(e *env, stakeID []byte) {
				e.approve(e.claimant, stakeID, 2000)
				poor := weavetest.NewCondition().Address()
				if err := e.tokens.Transfer(e.db, ticker, e.claimant.Address(), poor, 995); err != nil {
					e.t.Fatalf("cannot transfer: %s", err)
				}
			},
			amount:  1,
			fee:     10,
			wantErr: ledger.ErrTransferFailed,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t, nil)
			stakeID := e.createStake(100, 5)
			claimant := e.claimant
			if tc.claimant != nil {
				claimant = tc.claimant(e)
			}
			if !tc.skipWhitelist {
				e.whitelist(stakeID, claimant.Address())
			}
			e.approve(claimant, stakeID, tc.fee)
			if tc.prepare != nil {
				tc.prepare(e, stakeID)
			}
			signer := claimant
			if tc.signer != nil {
				signer = tc.signer(e)
			}
			before := e.balance(claimant.Address())

			msg := &OpenClaimMsg{
				Metadata: &delphi.Metadata{Schema: 1},
				StakeID:  stakeID,
				Claimant: claimant.Address(),
				Amount:   tc.amount,
				Fee:      tc.fee,
				Data:     "evidence",
			}
			assert.IsErr(t, tc.wantErr, e.check(msg, signer))
			res, err := e.deliver(msg, signer)
			assert.IsErr(t, tc.wantErr, err)

			s := e.stake(stakeID)
			if tc.wantErr != nil {
				assert.Equal(t, uint64(0), s.NumClaims)
				assert.Equal(t, uint64(0), s.OpenClaims)
				assert.Equal(t, uint64(100), s.ClaimableStake)
				assert.Equal(t, uint64(100), e.balance(s.Address))
				assert.Equal(t, before, e.balance(claimant.Address()))
				return
			}

			assert.Equal(t, orm.EncodeSequence(0), res.Data)
			v, ok := res.TagValue(tagClaimIndex)
			assert.Equal(t, true, ok)
			assert.Equal(t, "0", v)

			assert.Equal(t, uint64(1), s.NumClaims)
			assert.Equal(t, uint64(1), s.OpenClaims)
			assert.Equal(t, 100-tc.amount-tc.fee, s.ClaimableStake)
			assert.Equal(t, 100+tc.fee, e.balance(s.Address))
			assert.Equal(t, before-tc.fee, e.balance(claimant.Address()))

			c := e.claim(stakeID, 0)
			assert.Equal(t, claimant.Address(), c.Claimant)
			assert.Equal(t, tc.amount, c.Amount)
			assert.Equal(t, tc.fee, c.Fee)
			assert.Equal(t, "evidence", c.Data)
			assert.Equal(t, uint64(0), c.SurplusFee)
			assert.Equal(t, uint32(0), c.Ruling)
			assert.Equal(t, false, c.Ruled)
			assert.Equal(t, false, c.SettlementFailed)
			assert.Equal(t, false, c.Settled)
		})
	}
}

func TestOpenClaimDataTooLong(t *testing.T) {
	conf := defaultConf()
	conf.MaxDataSize = 4
	e := newEnv(t, conf)
	e.mustDeliver(&CreateStakeMsg{
		Metadata:    &delphi.Metadata{Schema: 1},
		Staker:      e.staker.Address(),
		Arbiter:     e.arbiter.Address(),
		Ticker:      ticker,
		Amount:      100,
		MinFee:      5,
		ReleaseTime: delphi.AsUnixTime(e.now.Add(time.Hour)),
	}, e.staker)
	stakeID := weavetest.SequenceID(1)
	e.whitelist(stakeID, e.claimant.Address())
	e.approve(e.claimant, stakeID, 10)

	_, err := e.deliver(&OpenClaimMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: e.claimant.Address(),
		Amount:   1,
		Fee:      10,
		Data:     "too long",
	}, e.claimant)
	assert.IsErr(t, errors.ErrInput, err)
	assert.Equal(t, uint64(0), e.stake(stakeID).NumClaims)

	// A caller that is not whitelisted is refused before the data is looked at.
	stranger := weavetest.NewCondition()
	_, err = e.deliver(&OpenClaimMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: stranger.Address(),
		Amount:   1,
		Fee:      10,
		Data:     "too long",
	}, stranger)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	// So is the staker.
	e.whitelist(stakeID, e.staker.Address())
	_, err = e.deliver(&OpenClaimMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Claimant: e.staker.Address(),
		Amount:   1,
		Fee:      10,
		Data:     "too long",
	}, e.staker)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, uint64(0), e.stake(stakeID).NumClaims)
}

func TestOpenClaimScenario(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	index := e.openClaim(stakeID, 1, 10)

	assert.Equal(t, uint64(0), index)
	n, err := e.ctrl.NumClaims(e.db, stakeID)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), n)
	open, err := e.ctrl.OpenClaims(e.db, stakeID)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), open)

	s := e.stake(stakeID)
	assert.Equal(t, uint64(89), s.ClaimableStake)
	// The collateral of 100 plus the claimant fee of 10.
	assert.Equal(t, uint64(110), e.balance(s.Address))
}

func TestSequentialClaims(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)

	claims := []struct {
		amount, fee uint64
		data        string
	}{
		{amount: 1, fee: 5, data: "first"},
		{amount: 2, fee: 6, data: "second"},
		{amount: 3, fee: 7, data: "third"},
	}
	e.whitelist(stakeID, e.claimant.Address())
	e.approve(e.claimant, stakeID, 18)
	for i, c := range claims {
		res := e.mustDeliver(&OpenClaimMsg{
			Metadata: &delphi.Metadata{Schema: 1},
			StakeID:  stakeID,
			Claimant: e.claimant.Address(),
			Amount:   c.amount,
			Fee:      c.fee,
			Data:     c.data,
		}, e.claimant)
		assert.Equal(t, uint64(i), orm.DecodeSequence(res.Data))
	}

	for i, want := range claims {
		got := e.claim(stakeID, uint64(i))
		assert.Equal(t, want.amount, got.Amount)
		assert.Equal(t, want.fee, got.Fee)
		assert.Equal(t, want.data, got.Data)
	}
	s := e.stake(stakeID)
	assert.Equal(t, uint64(3), s.NumClaims)
	assert.Equal(t, uint64(3), s.OpenClaims)
	assert.Equal(t, uint64(100-6-8-10), s.ClaimableStake)

	_, err := e.ctrl.GetClaim(e.db, stakeID, 3)
	assert.IsErr(t, ErrUnknownClaim, err)
}

func TestRuleOnClaim(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	index := e.openClaim(stakeID, 1, 10)

	rule := func(index uint64, ruling uint32) *RuleOnClaimMsg {
		return &RuleOnClaimMsg{
			Metadata:   &delphi.Metadata{Schema: 1},
			StakeID:    stakeID,
			ClaimIndex: index,
			Ruling:     ruling,
		}
	}

	_, err := e.deliver(rule(index, 0), e.claimant)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = e.deliver(rule(index+1, 0), e.arbiter)
	assert.IsErr(t, ErrUnknownClaim, err)
	_, err = e.deliver(rule(index, 9), e.arbiter)
	assert.IsErr(t, ErrInvalidConfiguration, err)
	assert.Equal(t, false, e.claim(stakeID, index).Ruled)

	res, err := e.deliver(rule(index, 2), e.arbiter)
	assert.Nil(t, err)
	v, ok := res.TagValue("stake.ruling")
	assert.Equal(t, true, ok)
	assert.Equal(t, "2", v)

	c := e.claim(stakeID, index)
	assert.Equal(t, true, c.Ruled)
	assert.Equal(t, uint32(2), c.Ruling)

	// A ruling is written once.
	_, err = e.deliver(rule(index, 1), e.arbiter)
	assert.IsErr(t, ErrAlreadyRuled, err)
	_, err = e.deliver(rule(index, 1), e.protocol)
	assert.IsErr(t, ErrAlreadyRuled, err)
	assert.Equal(t, uint32(2), e.claim(stakeID, index).Ruling)
}

func TestRuleOnClaimByProtocol(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	index := e.openClaim(stakeID, 1, 10)

	e.mustDeliver(&RuleOnClaimMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
		Ruling:     1,
	}, e.protocol)
	assert.Equal(t, true, e.claim(stakeID, index).Ruled)
}

func TestIncreaseStake(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	msg := &IncreaseStakeMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
		Amount:   50,
	}

	_, err := e.deliver(msg, e.claimant)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = e.deliver(msg, e.staker)
	assert.IsErr(t, ledger.ErrTransferFailed, err)

	e.approve(e.staker, stakeID, 50)
	e.mustDeliver(msg, e.staker)
	s := e.stake(stakeID)
	assert.Equal(t, uint64(150), s.ClaimableStake)
	assert.Equal(t, uint64(150), e.balance(s.Address))
	assert.Equal(t, uint64(850), e.balance(e.staker.Address()))

	msg.Amount = 0
	_, err = e.deliver(msg, e.staker)
	assert.IsErr(t, ErrInvalidConfiguration, err)
}

func TestExtendReleaseTime(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	current := e.stake(stakeID).ReleaseTime

	msg := &ExtendReleaseTimeMsg{
		Metadata:    &delphi.Metadata{Schema: 1},
		StakeID:     stakeID,
		ReleaseTime: current,
	}
	_, err := e.deliver(msg, e.staker)
	assert.IsErr(t, errors.ErrInput, err)

	msg.ReleaseTime = current.Add(time.Hour)
	_, err = e.deliver(msg, e.arbiter)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	e.mustDeliver(msg, e.staker)
	assert.Equal(t, current.Add(time.Hour), e.stake(stakeID).ReleaseTime)
}

func TestWithdrawStake(t *testing.T) {
	e := newEnv(t, nil)
	stakeID := e.createStake(100, 5)
	index := e.openClaim(stakeID, 1, 10)
	msg := &WithdrawStakeMsg{
		Metadata: &delphi.Metadata{Schema: 1},
		StakeID:  stakeID,
	}

	_, err := e.deliver(msg, e.staker)
	assert.IsErr(t, errors.ErrState, err)

	e.now = e.now.Add(48 * time.Hour)
	_, err = e.deliver(msg, e.claimant)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	// The claim is still open.
	_, err = e.deliver(msg, e.staker)
	assert.IsErr(t, errors.ErrState, err)

	e.rule(stakeID, index, 1)
	e.mustDeliver(&SettleClaimMsg{
		Metadata:   &delphi.Metadata{Schema: 1},
		StakeID:    stakeID,
		ClaimIndex: index,
	}, e.claimant)

	res := e.mustDeliver(msg, e.staker)
	v, _ := res.TagValue("stake.withdrawn")
	// Collateral returned in full and the claimant fee went to the
	// arbiter.
	assert.Equal(t, "100", v)
	assert.Equal(t, uint64(1000), e.balance(e.staker.Address()))
	assert.Equal(t, uint64(10), e.balance(e.arbiter.Address()))
	s := e.stake(stakeID)
	assert.Equal(t, uint64(0), s.ClaimableStake)
	assert.Equal(t, uint64(0), e.balance(s.Address))

	// Nothing left, withdrawing again is a no op.
	e.mustDeliver(msg, e.staker)
}
