package main

import (
	"github.com/iov-one/delphi"
	delphid "github.com/iov-one/delphi/cmd/delphid/app"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x/arbitration"
	"github.com/iov-one/delphi/x/ledger"
	"github.com/iov-one/delphi/x/stake"
	"github.com/urfave/cli/v2"
)

var optionsFlag = &cli.UintFlag{
	Name:  "options",
	Usage: "number of vote options to list",
	Value: 4,
}

// queryCommand returns a command that runs fn against the last committed
// state and prints its result.
func queryCommand(name, usage string, flags []cli.Flag, fn func(c *cli.Context, node *delphid.Node) (interface{}, error)) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: flags,
		Action: func(c *cli.Context) error {
			node, release, err := openNode(c)
			if err != nil {
				return err
			}
			defer release()
			res, err := fn(c, node)
			if err != nil {
				return err
			}
			return printJSON(c, res)
		},
	}
}

func queryStake(c *cli.Context, node *delphid.Node) ([]byte, *stake.Stake, error) {
	stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	var s stake.Stake
	if err := node.QueryOne("/stakes", stakeID, &s); err != nil {
		return nil, nil, err
	}
	return stakeID, &s, nil
}

func queryClaim(node *delphid.Node, stakeID []byte, index uint64) (*stake.Claim, error) {
	var claim stake.Claim
	if err := node.QueryOne("/claims", stake.ClaimID(stakeID, index), &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

var commandQuery = &cli.Command{
	Name:  "query",
	Usage: "read the committed state",
	Subcommands: []*cli.Command{
		queryCommand("stake", "show a stake", []cli.Flag{stakeIDFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				_, s, err := queryStake(c, node)
				return s, err
			}),
		queryCommand("claim", "show a claim", []cli.Flag{stakeIDFlag, claimIndexFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				return queryClaim(node, stakeID, c.Uint64(claimIndexFlag.Name))
			}),
		queryCommand("claims", "list all claims of a stake", []cli.Flag{stakeIDFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				stakeID, s, err := queryStake(c, node)
				if err != nil {
					return nil, err
				}
				claims := make([]*stake.Claim, 0, s.NumClaims)
				for i := uint64(0); i < s.NumClaims; i++ {
					claim, err := queryClaim(node, stakeID, i)
					if err != nil {
						return nil, errors.Wrapf(err, "claim %d", i)
					}
					claims = append(claims, claim)
				}
				return claims, nil
			}),
		queryCommand("whitelist", "show the whitelist entry of a claimant", []cli.Flag{stakeIDFlag, claimantFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				stakeID, err := parseStakeID(c.String(stakeIDFlag.Name))
				if err != nil {
					return nil, err
				}
				claimant, err := parseAddress(c.String(claimantFlag.Name))
				if err != nil {
					return nil, err
				}
				var entry stake.WhitelistEntry
				if err := node.QueryOne("/whitelist", stake.WhitelistKey(stakeID, claimant), &entry); err != nil {
					return nil, err
				}
				return &entry, nil
			}),
		queryCommand("poll", "show the poll of a claim", []cli.Flag{claimIDFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				claimID, err := parseClaimID(c.String(claimIDFlag.Name))
				if err != nil {
					return nil, err
				}
				var poll arbitration.Poll
				if err := node.QueryOne("/polls", claimID, &poll); err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"poll":  &poll,
					"phase": poll.Phase(delphi.AsUnixTime(blockTime(c))).String(),
				}, nil
			}),
		queryCommand("tally", "show the revealed votes of a claim", []cli.Flag{claimIDFlag, optionsFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				claimID, err := parseClaimID(c.String(claimIDFlag.Name))
				if err != nil {
					return nil, err
				}
				counts := make([]uint64, c.Uint(optionsFlag.Name))
				for opt := range counts {
					var t arbitration.Tally
					switch err := node.QueryOne("/tallies", arbitration.TallyKey(claimID, uint32(opt)), &t); {
					case err == nil:
						counts[opt] = t.Count
					case errors.ErrNotFound.Is(err):
					default:
						return nil, err
					}
				}
				return counts, nil
			}),
		queryCommand("balance", "show the token balance of an address", []cli.Flag{txTickerFlag},
			func(c *cli.Context, node *delphid.Node) (interface{}, error) {
				if c.NArg() != 1 {
					return nil, errors.Wrap(errors.ErrInput, "address required")
				}
				addr, err := spenderAddress(c.Args().First())
				if err != nil {
					return nil, err
				}
				ticker := c.String(txTickerFlag.Name)
				var w ledger.Wallet
				switch err := node.QueryOne("/wallets", ledger.WalletKey(ticker, addr), &w); {
				case err == nil, errors.ErrNotFound.Is(err):
				default:
					return nil, err
				}
				return map[string]interface{}{
					"address": addr,
					"ticker":  ticker,
					"balance": w.Balance,
				}, nil
			}),
	},
}
