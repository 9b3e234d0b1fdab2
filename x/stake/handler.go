package stake

import (
	"encoding/hex"
	"strconv"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/gconf"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/store"
	"github.com/iov-one/delphi/x"
	"github.com/iov-one/delphi/x/ledger"
)

const (
	tagStakeID    = "stake.id"
	tagClaimIndex = "stake.claim_index"
	tagSettlement = "stake.settlement"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
//
// Rulings are accepted from the arbiter of the stake. When protocol is not
// nil, rulings authorized by the protocol address are accepted as well.
// This is how the arbitration extension delivers the outcome of a vote.
func RegisterRoutes(r delphi.Registry, auth x.Authenticator, tokens ledger.Controller, protocol delphi.Address) {
	h := handler{
		auth:   auth,
		tokens: tokens,
		ctrl:   NewController(),
		seq:    orm.NewSequence("stake", "id"),
	}
	r.Handle(&CreateStakeMsg{}, &createStakeHandler{h})
	r.Handle(&WhitelistClaimantMsg{}, &whitelistHandler{h})
	r.Handle(&OpenClaimMsg{}, &openClaimHandler{h})
	r.Handle(&RuleOnClaimMsg{}, &ruleOnClaimHandler{handler: h, protocol: protocol})
	r.Handle(&SettleClaimMsg{}, &settleClaimHandler{h})
	r.Handle(&IncreaseStakeMsg{}, &increaseStakeHandler{h})
	r.Handle(&ExtendReleaseTimeMsg{}, &extendReleaseTimeHandler{h})
	r.Handle(&WithdrawStakeMsg{}, &withdrawHandler{h})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(packageName, &Configuration{}, auth))
}

// RegisterQuery exposes stakes, claims and whitelist entries.
func RegisterQuery(qr delphi.QueryRouter) {
	NewStakeBucket().Register("stakes", qr)
	NewClaimBucket().Register("claims", qr)
	NewWhitelistBucket().Register("whitelist", qr)
}

// handler groups the dependencies shared by all stake handlers.
type handler struct {
	auth   x.Authenticator
	tokens ledger.Controller
	ctrl   BaseController
	seq    orm.Sequence
}

// stakerStake loads the stake and ensures that the staker signed the
// transaction.
func (h handler) stakerStake(ctx delphi.Context, db delphi.ReadOnlyKVStore, stakeID []byte) (*Stake, error) {
	s, err := h.ctrl.GetStake(db, stakeID)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, s.Staker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "staker signature missing")
	}
	return s, nil
}

func stakeTags(stakeID []byte) *delphi.DeliverResult {
	res := &delphi.DeliverResult{}
	res.Tag(tagStakeID, hex.EncodeToString(stakeID))
	return res
}

type createStakeHandler struct {
	handler
}

func (h *createStakeHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *createStakeHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	stakeID, err := h.seq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "stake id")
	}
	s := Stake{
		Metadata:       &delphi.Metadata{Schema: 1},
		Staker:         msg.Staker,
		Arbiter:        msg.Arbiter,
		Ticker:         msg.Ticker,
		MinFee:         msg.MinFee,
		Data:           msg.Data,
		ReleaseTime:    msg.ReleaseTime,
		ClaimableStake: msg.Amount,
		Address:        StakeAddress(stakeID),
	}
	if err := h.tokens.Transfer(db, msg.Ticker, msg.Staker, s.Address, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "lock collateral")
	}
	if err := h.ctrl.saveStake(db, stakeID, &s); err != nil {
		return nil, err
	}

	delphi.GetLogger(ctx).Info("stake created",
		"id", hex.EncodeToString(stakeID),
		"staker", msg.Staker,
		"arbiter", msg.Arbiter,
		"amount", msg.Amount)

	res := stakeTags(stakeID)
	res.Data = stakeID
	return res, nil
}

func (h *createStakeHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*CreateStakeMsg, error) {
	var msg CreateStakeMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Staker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "staker signature missing")
	}
	if err := h.tokens.HasToken(db, msg.Ticker); err != nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, err.Error())
	}
	if !delphi.InTheFuture(ctx, msg.ReleaseTime) {
		return nil, errors.Wrap(ErrInvalidConfiguration, "release time must be in the future")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if len(msg.Data) > int(conf.MaxDataSize) {
		return nil, errors.Wrapf(errors.ErrInput, "data cannot be longer than %d", conf.MaxDataSize)
	}
	return &msg, nil
}

type whitelistHandler struct {
	handler
}

func (h *whitelistHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *whitelistHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	entry := WhitelistEntry{
		Metadata: &delphi.Metadata{Schema: 1},
		Deadline: msg.Deadline,
	}
	if _, err := h.ctrl.whitelist.Put(db, WhitelistKey(msg.StakeID, msg.Claimant), &entry); err != nil {
		return nil, errors.Wrap(err, "save whitelist entry")
	}
	delphi.GetLogger(ctx).Info("claimant whitelisted",
		"stake", hex.EncodeToString(msg.StakeID),
		"claimant", msg.Claimant,
		"deadline", msg.Deadline)
	return stakeTags(msg.StakeID), nil
}

func (h *whitelistHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*WhitelistClaimantMsg, error) {
	var msg WhitelistClaimantMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.stakerStake(ctx, db, msg.StakeID); err != nil {
		return nil, err
	}
	return &msg, nil
}

type openClaimHandler struct {
	handler
}

func (h *openClaimHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *openClaimHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if msg.Fee > 0 {
		if err := h.tokens.TransferFrom(db, s.Ticker, msg.Claimant, s.Address, s.Address, msg.Fee); err != nil {
			return nil, errors.Wrap(err, "claim fee")
		}
	}

	index := s.NumClaims
	claim := Claim{
		Metadata: &delphi.Metadata{Schema: 1},
		Claimant: msg.Claimant,
		Amount:   msg.Amount,
		Fee:      msg.Fee,
		Data:     msg.Data,
	}
	if err := h.ctrl.saveClaim(db, msg.StakeID, index, &claim); err != nil {
		return nil, err
	}
	// Reservation was checked against the claimable stake by validate.
	s.ClaimableStake -= claim.reserved()
	s.NumClaims++
	s.OpenClaims++
	if err := h.ctrl.saveStake(db, msg.StakeID, s); err != nil {
		return nil, err
	}

	delphi.GetLogger(ctx).Info("claim opened",
		"stake", hex.EncodeToString(msg.StakeID),
		"index", index,
		"claimant", msg.Claimant,
		"amount", msg.Amount,
		"fee", msg.Fee)

	res := stakeTags(msg.StakeID)
	res.Tag(tagClaimIndex, strconv.FormatUint(index, 10))
	res.Tag("stake.claim_opened", msg.Claimant.String())
	res.Data = orm.EncodeSequence(index)
	return res, nil
}

// validate runs all checks that must pass before a claim can be opened.
// The order of the checks decides which error is returned when more than
// one condition is violated.
func (h *openClaimHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*OpenClaimMsg, *Stake, error) {
	var msg OpenClaimMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	s, err := h.ctrl.GetStake(db, msg.StakeID)
	if err != nil {
		return nil, nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, msg.Claimant) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "claimant signature missing")
	}
	entry, err := h.ctrl.GetWhitelist(db, msg.StakeID, msg.Claimant)
	switch {
	case errors.ErrNotFound.Is(err):
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "claimant not whitelisted")
	case err != nil:
		return nil, nil, err
	}
	if delphi.Now(ctx) > entry.Deadline {
		return nil, nil, errors.Wrapf(errors.ErrExpired, "whitelist deadline %s passed", entry.Deadline)
	}

	if msg.Claimant.Equals(s.Staker) || msg.Claimant.Equals(s.Arbiter) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "staker and arbiter cannot open claims")
	}
	if len(msg.Data) > int(conf.MaxDataSize) {
		return nil, nil, errors.Wrapf(errors.ErrInput, "data cannot be longer than %d", conf.MaxDataSize)
	}
	if msg.Fee < s.MinFee {
		return nil, nil, errors.Wrapf(ErrFeeTooLow, "minimum fee is %d", s.MinFee)
	}
	reserved, err := x.AddAmounts(msg.Amount, msg.Fee)
	if err != nil || reserved > s.ClaimableStake {
		return nil, nil, errors.Wrapf(ErrInsufficientStake, "claimable stake is %d", s.ClaimableStake)
	}
	if msg.Fee > 0 {
		if err := h.canPayFee(db, s, msg.Claimant, msg.Fee); err != nil {
			return nil, nil, err
		}
	}
	return &msg, s, nil
}

// canPayFee returns ErrTransferFailed if the claimant's balance or the
// allowance given to the stake address is lower than the fee.
func (h *openClaimHandler) canPayFee(db delphi.ReadOnlyKVStore, s *Stake, claimant delphi.Address, fee uint64) error {
	balance, err := h.tokens.Balance(db, s.Ticker, claimant)
	if err != nil {
		return err
	}
	if balance < fee {
		return errors.Wrapf(ledger.ErrTransferFailed, "claimant balance is %d", balance)
	}
	allowed, err := h.tokens.Allowance(db, s.Ticker, claimant, s.Address)
	if err != nil {
		return err
	}
	if allowed < fee {
		return errors.Wrapf(ledger.ErrTransferFailed, "stake allowance is %d", allowed)
	}
	return nil
}

type ruleOnClaimHandler struct {
	handler
	protocol delphi.Address
}

func (h *ruleOnClaimHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *ruleOnClaimHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, claim, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	claim.Ruling = msg.Ruling
	claim.Ruled = true
	if err := h.ctrl.saveClaim(db, msg.StakeID, msg.ClaimIndex, claim); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("claim ruled",
		"stake", hex.EncodeToString(msg.StakeID),
		"index", msg.ClaimIndex,
		"ruling", msg.Ruling)

	res := stakeTags(msg.StakeID)
	res.Tag(tagClaimIndex, strconv.FormatUint(msg.ClaimIndex, 10))
	res.Tag("stake.ruling", strconv.FormatUint(uint64(msg.Ruling), 10))
	return res, nil
}

func (h *ruleOnClaimHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*RuleOnClaimMsg, *Claim, error) {
	var msg RuleOnClaimMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	s, err := h.ctrl.GetStake(db, msg.StakeID)
	if err != nil {
		return nil, nil, err
	}
	if !x.HasAnyAddress(ctx, h.auth, s.Arbiter, h.protocol) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "arbiter signature missing")
	}
	claim, err := h.ctrl.claim(db, msg.StakeID, s, msg.ClaimIndex)
	if err != nil {
		return nil, nil, err
	}
	if claim.Ruled {
		return nil, nil, errors.Wrapf(ErrAlreadyRuled, "ruling %d", claim.Ruling)
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := conf.Distribution(msg.Ruling); !ok {
		return nil, nil, errors.Wrapf(ErrInvalidConfiguration, "no distribution for ruling %d", msg.Ruling)
	}
	return &msg, claim, nil
}

type settleClaimHandler struct {
	handler
}

func (h *settleClaimHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, err := h.validate(db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *settleClaimHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	st, err := h.validate(db, tx)
	if err != nil {
		return nil, err
	}
	msg, s, claim := st.msg, st.stake, st.claim

	res := stakeTags(msg.StakeID)
	res.Tag(tagClaimIndex, strconv.FormatUint(msg.ClaimIndex, 10))

	p := st.payout()
	cache := store.NewCache(db)
	if err := h.distribute(cache, s, claim, p); err != nil {
		cache.Discard()
		claim.SettlementFailed = true
		if err := h.ctrl.saveClaim(db, msg.StakeID, msg.ClaimIndex, claim); err != nil {
			return nil, err
		}
		delphi.GetLogger(ctx).Error("claim settlement failed",
			"stake", hex.EncodeToString(msg.StakeID),
			"index", msg.ClaimIndex,
			"err", err)
		res.Tag(tagSettlement, "failed")
		return res, nil
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "write settlement")
	}

	claimable, err := x.AddAmounts(s.ClaimableStake, p.toStake)
	if err != nil {
		return nil, errors.Wrap(err, "claimable stake")
	}
	s.ClaimableStake = claimable
	s.OpenClaims--
	if err := h.ctrl.saveStake(db, msg.StakeID, s); err != nil {
		return nil, err
	}
	claim.SurplusFee = p.surplus
	claim.Settled = true
	claim.SettlementFailed = false
	if err := h.ctrl.saveClaim(db, msg.StakeID, msg.ClaimIndex, claim); err != nil {
		return nil, err
	}

	delphi.GetLogger(ctx).Info("claim settled",
		"stake", hex.EncodeToString(msg.StakeID),
		"index", msg.ClaimIndex,
		"ruling", claim.Ruling)
	res.Tag(tagSettlement, "settled")
	return res, nil
}

// settlement is a validated settlement request.
type settlement struct {
	msg   *SettleClaimMsg
	stake *Stake
	claim *Claim
	dist  Distribution
	// refund is true when the surplus fee is refunded.
	refund bool
}

// payout is the amount of tokens each recipient receives.
type payout struct {
	toClaimant uint64
	toArbiter  uint64
	toBurn     uint64
	toStake    uint64
	surplus    uint64
}

func (p *payout) add(r Recipient, amount uint64) {
	switch r {
	case ToClaimant:
		p.toClaimant += amount
	case ToArbiter:
		p.toArbiter += amount
	case ToBurn:
		p.toBurn += amount
	case ToStake:
		p.toStake += amount
	}
}

// payout splits the three reserved pots of the claim between the
// recipients. All pots together are never more than the claimed amount and
// twice the fee, so the sums cannot overflow after the claim was opened.
func (st settlement) payout() payout {
	var p payout
	claimantFee := st.claim.Fee
	if st.refund && st.claim.Fee > st.stake.MinFee {
		p.surplus = st.claim.Fee - st.stake.MinFee
		if st.dist.ClaimantFee != ToClaimant {
			claimantFee -= p.surplus
			p.toClaimant += p.surplus
		}
	}
	p.add(st.dist.Amount, st.claim.Amount)
	p.add(st.dist.ClaimantFee, claimantFee)
	p.add(st.dist.StakerFee, st.claim.Fee)
	return p
}

// distribute moves the tokens out of the stake address. Pots returned to
// the stake do not move, because the stake address already holds them.
func (h *settleClaimHandler) distribute(db delphi.KVStore, s *Stake, claim *Claim, p payout) error {
	if p.toClaimant > 0 {
		if err := h.tokens.Transfer(db, s.Ticker, s.Address, claim.Claimant, p.toClaimant); err != nil {
			return errors.Wrap(err, "pay claimant")
		}
	}
	if p.toArbiter > 0 {
		if err := h.tokens.Transfer(db, s.Ticker, s.Address, s.Arbiter, p.toArbiter); err != nil {
			return errors.Wrap(err, "pay arbiter")
		}
	}
	if p.toBurn > 0 {
		if err := h.tokens.Burn(db, s.Ticker, s.Address, p.toBurn); err != nil {
			return errors.Wrap(err, "burn")
		}
	}
	return nil
}

func (h *settleClaimHandler) validate(db delphi.ReadOnlyKVStore, tx delphi.Tx) (*settlement, error) {
	var msg SettleClaimMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	s, err := h.ctrl.GetStake(db, msg.StakeID)
	if err != nil {
		return nil, err
	}
	claim, err := h.ctrl.claim(db, msg.StakeID, s, msg.ClaimIndex)
	if err != nil {
		return nil, err
	}
	if !claim.Ruled {
		return nil, errors.Wrap(errors.ErrState, "claim not ruled")
	}
	if claim.Settled {
		return nil, errors.Wrap(errors.ErrState, "claim already settled")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	dist, ok := conf.Distribution(claim.Ruling)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "no distribution for ruling %d", claim.Ruling)
	}
	return &settlement{
		msg:    &msg,
		stake:  s,
		claim:  claim,
		dist:   dist,
		refund: conf.SurplusPolicy == SurplusRefund,
	}, nil
}

type increaseStakeHandler struct {
	handler
}

func (h *increaseStakeHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *increaseStakeHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	claimable, err := x.AddAmounts(s.ClaimableStake, msg.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "claimable stake")
	}
	if err := h.tokens.TransferFrom(db, s.Ticker, s.Staker, s.Address, s.Address, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "lock collateral")
	}
	s.ClaimableStake = claimable
	if err := h.ctrl.saveStake(db, msg.StakeID, s); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("stake increased",
		"stake", hex.EncodeToString(msg.StakeID),
		"amount", msg.Amount,
		"claimable", claimable)
	return stakeTags(msg.StakeID), nil
}

func (h *increaseStakeHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*IncreaseStakeMsg, *Stake, error) {
	var msg IncreaseStakeMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	s, err := h.stakerStake(ctx, db, msg.StakeID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, s, nil
}

type extendReleaseTimeHandler struct {
	handler
}

func (h *extendReleaseTimeHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *extendReleaseTimeHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	s.ReleaseTime = msg.ReleaseTime
	if err := h.ctrl.saveStake(db, msg.StakeID, s); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("stake release time extended",
		"stake", hex.EncodeToString(msg.StakeID),
		"release_time", msg.ReleaseTime)
	return stakeTags(msg.StakeID), nil
}

func (h *extendReleaseTimeHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*ExtendReleaseTimeMsg, *Stake, error) {
	var msg ExtendReleaseTimeMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	s, err := h.stakerStake(ctx, db, msg.StakeID)
	if err != nil {
		return nil, nil, err
	}
	if msg.ReleaseTime <= s.ReleaseTime {
		return nil, nil, errors.Wrapf(errors.ErrInput, "release time must be after %s", s.ReleaseTime)
	}
	return &msg, s, nil
}

type withdrawHandler struct {
	handler
}

func (h *withdrawHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h *withdrawHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	msg, s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	amount := s.ClaimableStake
	if amount > 0 {
		if err := h.tokens.Transfer(db, s.Ticker, s.Address, s.Staker, amount); err != nil {
			return nil, errors.Wrap(err, "return collateral")
		}
	}
	s.ClaimableStake = 0
	if err := h.ctrl.saveStake(db, msg.StakeID, s); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("stake withdrawn",
		"stake", hex.EncodeToString(msg.StakeID),
		"amount", amount)

	res := stakeTags(msg.StakeID)
	res.Tag("stake.withdrawn", strconv.FormatUint(amount, 10))
	return res, nil
}

func (h *withdrawHandler) validate(ctx delphi.Context, db delphi.ReadOnlyKVStore, tx delphi.Tx) (*WithdrawStakeMsg, *Stake, error) {
	var msg WithdrawStakeMsg
	if err := delphi.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	s, err := h.stakerStake(ctx, db, msg.StakeID)
	if err != nil {
		return nil, nil, err
	}
	if !delphi.IsExpired(ctx, s.ReleaseTime) {
		return nil, nil, errors.Wrapf(errors.ErrState, "stake locked until %s", s.ReleaseTime)
	}
	if s.OpenClaims > 0 {
		return nil, nil, errors.Wrapf(errors.ErrState, "%d claims still open", s.OpenClaims)
	}
	return &msg, s, nil
}
