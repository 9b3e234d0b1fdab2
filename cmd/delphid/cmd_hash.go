package main

import (
	"encoding/hex"
	"fmt"

	"github.com/iov-one/delphi/x/arbitration"
	"github.com/urfave/cli/v2"
)

var commandHash = &cli.Command{
	Name:  "hash",
	Usage: "compute the commitment of a vote, to be used with commit-vote",
	Flags: []cli.Flag{voteFlag, saltFlag},
	Action: func(c *cli.Context) error {
		h := arbitration.CommitmentHash(uint32(c.Uint(voteFlag.Name)), []byte(c.String(saltFlag.Name)))
		_, err := fmt.Fprintln(c.App.Writer, hex.EncodeToString(h))
		return err
	},
}
