package main

import (
	"encoding/hex"
	"strings"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/x/arbitration"
	"github.com/iov-one/delphi/x/ledger"
	"github.com/iov-one/delphi/x/stake"
	"github.com/urfave/cli/v2"
)

var (
	stakeIDFlag = &cli.StringFlag{
		Name:     "stake",
		Usage:    "numeric stake id",
		Required: true,
	}
	claimIndexFlag = &cli.Uint64Flag{
		Name:     "claim",
		Usage:    "index of the claim within the stake",
		Required: true,
	}
	claimIDFlag = &cli.StringFlag{
		Name:     "claim-id",
		Usage:    "hex encoded claim id",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "amount of tokens",
		Required: true,
	}
	txTickerFlag = &cli.StringFlag{
		Name:  "ticker",
		Usage: "token ticker",
		Value: "DLP",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "recipient address",
		Required: true,
	}
	spenderFlag = &cli.StringFlag{
		Name:     "spender",
		Usage:    "address allowed to spend the tokens",
		Required: true,
	}
	claimantFlag = &cli.StringFlag{
		Name:     "claimant",
		Usage:    "claimant address",
		Required: true,
	}
	arbiterAddrFlag = &cli.StringFlag{
		Name:  "arbiter",
		Usage: "arbiter address, defaults to the arbitration protocol",
	}
	minFeeFlag = &cli.Uint64Flag{
		Name:  "min-fee",
		Usage: "minimum fee a claimant must pay",
	}
	feeFlag = &cli.Uint64Flag{
		Name:  "fee",
		Usage: "fee paid by the claimant",
	}
	dataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "free form data, usually a link to a document",
	}
	durationFlag = &cli.DurationFlag{
		Name:     "for",
		Usage:    "duration after the block time",
		Required: true,
	}
	rulingFlag = &cli.UintFlag{
		Name:     "ruling",
		Usage:    "ruling on the claim",
		Required: true,
	}
	voteFlag = &cli.UintFlag{
		Name:     "vote",
		Usage:    "vote option",
		Required: true,
	}
	saltFlag = &cli.StringFlag{
		Name:     "salt",
		Usage:    "secret salt hiding the vote",
		Required: true,
	}
	memoFlag = &cli.StringFlag{
		Name:  "memo",
		Usage: "transfer memo",
	}
)

// txCommand returns a command that signs the message built by fn with the
// key file, delivers it in a new block and commits the block.
func txCommand(name, usage string, flags []cli.Flag, fn func(c *cli.Context, signer delphi.Address) (delphi.Msg, error)) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: append([]cli.Flag{keyFlag, timeFlag}, flags...),
		Action: func(c *cli.Context) error {
			key, err := loadKey(c.String(keyFlag.Name))
			if err != nil {
				return err
			}
			msg, err := fn(c, key.PublicKey().Address())
			if err != nil {
				return err
			}
			node, release, err := openNode(c)
			if err != nil {
				return err
			}
			defer release()

			node.BeginBlock(blockTime(c))
			res, deliverErr := node.Deliver(msg, key)
			if _, err := node.Commit(); err != nil {
				return errors.Wrap(err, "commit")
			}
			if deliverErr != nil {
				return deliverErr
			}

			tags := make(map[string]string, len(res.Tags))
			for _, t := range res.Tags {
				tags[string(t.Key)] = string(t.Value)
			}
			out := map[string]interface{}{
				"height": node.Height(),
				"path":   msg.Path(),
				"data":   hex.EncodeToString(res.Data),
				"tags":   tags,
			}
			switch m := msg.(type) {
			case *stake.CreateStakeMsg:
				out["stake_id"] = orm.DecodeSequence(res.Data)
			case *stake.OpenClaimMsg:
				index := orm.DecodeSequence(res.Data)
				out["claim_index"] = index
				out["claim_id"] = hex.EncodeToString(stake.ClaimID(m.StakeID, index))
			}
			return printJSON(c, out)
		},
	}
}

func releaseTime(c *cli.Context) delphi.UnixTime {
	return delphi.AsUnixTime(blockTime(c).Add(c.Duration(durationFlag.Name)))
}

var commandTx = &cli.Command{
	Name:  "tx",
	Usage: "sign and execute a transaction",
	Subcommands: []*cli.Command{
		txCommand("send", "send tokens", []cli.Flag{txTickerFlag, toFlag, amountFlag, memoFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				to, err := parseAddress(c.String(toFlag.Name))
				if err != nil {
					return nil, err
				}
				return &ledger.SendMsg{
					Metadata:    &delphi.Metadata{Schema: 1},
					Ticker:      c.String(txTickerFlag.Name),
					Source:      signer,
					Destination: to,
					Amount:      c.Uint64(amountFlag.Name),
					Memo:        c.String(memoFlag.Name),
				}, nil
			}),
		txCommand("approve", "allow an address to spend tokens", []cli.Flag{txTickerFlag, spenderFlag, amountFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				spender, err := spenderAddress(c.String(spenderFlag.Name))
				if err != nil {
					return nil, err
				}
				return &ledger.ApproveMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					Ticker:   c.String(txTickerFlag.Name),
					Owner:    signer,
					Spender:  spender,
					Amount:   c.Uint64(amountFlag.Name),
				}, nil
			}),
		txCommand("create-stake", "lock tokens as collateral", []cli.Flag{txTickerFlag, amountFlag, arbiterAddrFlag, minFeeFlag, dataFlag, durationFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				arbiter := arbitration.ProtocolAddress()
				if enc := c.String(arbiterAddrFlag.Name); enc != "" {
					addr, err := parseAddress(enc)
					if err != nil {
						return nil, err
					}
					arbiter = addr
				}
				return &stake.CreateStakeMsg{
					Metadata:    &delphi.Metadata{Schema: 1},
					Staker:      signer,
					Arbiter:     arbiter,
					Ticker:      c.String(txTickerFlag.Name),
					Amount:      c.Uint64(amountFlag.Name),
					MinFee:      c.Uint64(minFeeFlag.Name),
					Data:        c.String(dataFlag.Name),
					ReleaseTime: releaseTime(c),
				}, nil
			}),
		txCommand("whitelist", "allow a claimant to open claims", []cli.Flag{stakeIDFlag, claimantFlag, durationFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				claimant, err := parseAddress(c.String(claimantFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.WhitelistClaimantMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					StakeID:  stakeID,
					Claimant: claimant,
					Deadline: releaseTime(c),
				}, nil
			}),
		txCommand("open-claim", "open a claim against a stake", []cli.Flag{stakeIDFlag, amountFlag, feeFlag, dataFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.OpenClaimMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					StakeID:  stakeID,
					Claimant: signer,
					Amount:   c.Uint64(amountFlag.Name),
					Fee:      c.Uint64(feeFlag.Name),
					Data:     c.String(dataFlag.Name),
				}, nil
			}),
		txCommand("rule", "rule on a claim as the stake arbiter", []cli.Flag{stakeIDFlag, claimIndexFlag, rulingFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.RuleOnClaimMsg{
					Metadata:   &delphi.Metadata{Schema: 1},
					StakeID:    stakeID,
					ClaimIndex: c.Uint64(claimIndexFlag.Name),
					Ruling:     uint32(c.Uint(rulingFlag.Name)),
				}, nil
			}),
		txCommand("settle", "distribute the funds of a ruled claim", []cli.Flag{stakeIDFlag, claimIndexFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.SettleClaimMsg{
					Metadata:   &delphi.Metadata{Schema: 1},
					StakeID:    stakeID,
					ClaimIndex: c.Uint64(claimIndexFlag.Name),
				}, nil
			}),
		txCommand("increase-stake", "add collateral to a stake", []cli.Flag{stakeIDFlag, amountFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.IncreaseStakeMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					StakeID:  stakeID,
					Amount:   c.Uint64(amountFlag.Name),
				}, nil
			}),
		txCommand("extend-release", "postpone the release time of a stake", []cli.Flag{stakeIDFlag, durationFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.ExtendReleaseTimeMsg{
					Metadata:    &delphi.Metadata{Schema: 1},
					StakeID:     stakeID,
					ReleaseTime: releaseTime(c),
				}, nil
			}),
		txCommand("withdraw", "withdraw the claimable stake after the release time", []cli.Flag{stakeIDFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &stake.WithdrawStakeMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					StakeID:  stakeID,
				}, nil
			}),
		txCommand("commit-vote", "commit a hidden vote on a claim", []cli.Flag{stakeIDFlag, claimIndexFlag, voteFlag, saltFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &arbitration.CommitVoteMsg{
					Metadata:   &delphi.Metadata{Schema: 1},
					StakeID:    stakeID,
					ClaimIndex: c.Uint64(claimIndexFlag.Name),
					Voter:      signer,
					Commitment: arbitration.CommitmentHash(uint32(c.Uint(voteFlag.Name)), []byte(c.String(saltFlag.Name))),
				}, nil
			}),
		txCommand("reveal-vote", "reveal a committed vote", []cli.Flag{claimIDFlag, voteFlag, saltFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				claimID, err := parseClaimID(c.String(claimIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &arbitration.RevealVoteMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					ClaimID:  claimID,
					Voter:    signer,
					Vote:     uint32(c.Uint(voteFlag.Name)),
					Salt:     []byte(c.String(saltFlag.Name)),
				}, nil
			}),
		txCommand("resolve", "end a poll and deliver its ruling", []cli.Flag{claimIDFlag},
			func(c *cli.Context, signer delphi.Address) (delphi.Msg, error) {
				claimID, err := parseClaimID(c.String(claimIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return &arbitration.ResolveMsg{
					Metadata: &delphi.Metadata{Schema: 1},
					ClaimID:  claimID,
				}, nil
			}),
	},
}

// spenderAddress accepts an address or "stake:<id>" for the address of a
// stake, which must be approved before fees can be paid to it.
func spenderAddress(enc string) (delphi.Address, error) {
	const prefix = "stake:"
	if strings.HasPrefix(enc, prefix) {
		stakeID, err := parseStakeID(strings.TrimPrefix(enc, prefix))
		if err != nil {
			return nil, err
		}
		return stake.StakeAddress(stakeID), nil
	}
	return parseAddress(enc)
}
