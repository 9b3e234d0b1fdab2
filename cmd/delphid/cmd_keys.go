package main

import (
	"encoding/json"
	"io/ioutil"
	"os"

	delphid "github.com/iov-one/delphi/cmd/delphid/app"
	"github.com/iov-one/delphi/errors"
	"github.com/urfave/cli/v2"
)

const defaultKeyfileName = "key.json"

var commandKeys = &cli.Command{
	Name:  "keys",
	Usage: "manage ed25519 signing keys",
	Subcommands: []*cli.Command{
		{
			Name:      "generate",
			Usage:     "generate a new key file",
			ArgsUsage: "[ <keyfile> ]",
			Action: func(c *cli.Context) error {
				path := c.Args().First()
				if path == "" {
					path = defaultKeyfileName
				}
				if _, err := os.Stat(path); err == nil {
					return errors.Wrapf(errors.ErrDuplicate, "key file already exists at %s", path)
				}
				kf := delphid.GenerateKey()
				raw, err := json.MarshalIndent(kf, "", "  ")
				if err != nil {
					return errors.Wrapf(errors.ErrInput, "encode key: %s", err)
				}
				if err := ioutil.WriteFile(path, raw, 0600); err != nil {
					return errors.Wrapf(errors.ErrInput, "write key: %s", err)
				}
				return printJSON(c, map[string]string{"address": kf.Address.String()})
			},
		},
		{
			Name:      "address",
			Usage:     "print the address of a key file",
			ArgsUsage: "<keyfile>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return errors.Wrap(errors.ErrInput, "key file path required")
				}
				key, err := loadKey(c.Args().First())
				if err != nil {
					return err
				}
				return printJSON(c, map[string]string{"address": key.PublicKey().Address().String()})
			},
		},
	},
}
