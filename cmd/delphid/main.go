package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/delphi"
	"github.com/urfave/cli/v2"
)

var app *cli.App

func init() {
	app = cli.NewApp()
	app.Name = "delphid"
	app.Usage = "stake, claim and arbitration engine"
	app.Version = delphi.Version()
	app.Flags = []cli.Flag{
		homeFlag,
	}
	app.Commands = []*cli.Command{
		commandInit,
		commandKeys,
		commandTx,
		commandQuery,
		commandHash,
	}
}

// Commonly used command line flags.
var (
	homeFlag = &cli.StringFlag{
		Name:    "home",
		Usage:   "directory to store configuration and state under",
		Value:   filepath.Join(os.ExpandEnv("$HOME"), ".delphid"),
		EnvVars: []string{"DELPHI_HOME"},
	}
	keyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "key file used to sign the transaction",
		Required: true,
	}
	timeFlag = &cli.TimestampFlag{
		Name:   "time",
		Usage:  "block time to execute the transaction at (default now)",
		Layout: "2006-01-02T15:04:05Z07:00",
	}
)

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
