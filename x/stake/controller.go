package stake

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
)

// Controller exposes read access to stakes and claims to other extensions.
type Controller interface {
	// GetStake returns the stake with given id or ErrNotFound.
	GetStake(db delphi.ReadOnlyKVStore, stakeID []byte) (*Stake, error)
	// GetClaim returns the claim with given index or ErrUnknownClaim.
	GetClaim(db delphi.ReadOnlyKVStore, stakeID []byte, index uint64) (*Claim, error)
	// NumClaims returns the number of claims ever opened against the
	// stake.
	NumClaims(db delphi.ReadOnlyKVStore, stakeID []byte) (uint64, error)
	// OpenClaims returns the number of claims that are not settled yet.
	OpenClaims(db delphi.ReadOnlyKVStore, stakeID []byte) (uint64, error)
	// GetWhitelist returns the whitelist entry of the claimant or
	// ErrNotFound.
	GetWhitelist(db delphi.ReadOnlyKVStore, stakeID []byte, claimant delphi.Address) (*WhitelistEntry, error)
}

// BaseController is the Controller implementation backed by the stake
// buckets.
type BaseController struct {
	stakes    orm.ModelBucket
	claims    orm.ModelBucket
	whitelist orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		stakes:    NewStakeBucket(),
		claims:    NewClaimBucket(),
		whitelist: NewWhitelistBucket(),
	}
}

func (c BaseController) GetStake(db delphi.ReadOnlyKVStore, stakeID []byte) (*Stake, error) {
	var s Stake
	if err := c.stakes.One(db, stakeID, &s); err != nil {
		return nil, errors.Wrapf(err, "stake %X", stakeID)
	}
	return &s, nil
}

func (c BaseController) GetClaim(db delphi.ReadOnlyKVStore, stakeID []byte, index uint64) (*Claim, error) {
	s, err := c.GetStake(db, stakeID)
	if err != nil {
		return nil, err
	}
	return c.claim(db, stakeID, s, index)
}

func (c BaseController) claim(db delphi.ReadOnlyKVStore, stakeID []byte, s *Stake, index uint64) (*Claim, error) {
	if index >= s.NumClaims {
		return nil, errors.Wrapf(ErrUnknownClaim, "index %d, stake has %d claims", index, s.NumClaims)
	}
	var claim Claim
	if err := c.claims.One(db, ClaimID(stakeID, index), &claim); err != nil {
		return nil, errors.Wrapf(err, "claim %d", index)
	}
	return &claim, nil
}

func (c BaseController) NumClaims(db delphi.ReadOnlyKVStore, stakeID []byte) (uint64, error) {
	s, err := c.GetStake(db, stakeID)
	if err != nil {
		return 0, err
	}
	return s.NumClaims, nil
}

func (c BaseController) OpenClaims(db delphi.ReadOnlyKVStore, stakeID []byte) (uint64, error) {
	s, err := c.GetStake(db, stakeID)
	if err != nil {
		return 0, err
	}
	return s.OpenClaims, nil
}

func (c BaseController) GetWhitelist(db delphi.ReadOnlyKVStore, stakeID []byte, claimant delphi.Address) (*WhitelistEntry, error) {
	var w WhitelistEntry
	if err := c.whitelist.One(db, WhitelistKey(stakeID, claimant), &w); err != nil {
		return nil, errors.Wrapf(err, "whitelist of %s", claimant)
	}
	return &w, nil
}

func (c BaseController) saveStake(db delphi.KVStore, stakeID []byte, s *Stake) error {
	if _, err := c.stakes.Put(db, stakeID, s); err != nil {
		return errors.Wrap(err, "save stake")
	}
	return nil
}

func (c BaseController) saveClaim(db delphi.KVStore, stakeID []byte, index uint64, claim *Claim) error {
	if _, err := c.claims.Put(db, ClaimID(stakeID, index), claim); err != nil {
		return errors.Wrap(err, "save claim")
	}
	return nil
}
