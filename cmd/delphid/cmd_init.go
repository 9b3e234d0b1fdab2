package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/delphi"
	delphiapp "github.com/iov-one/delphi/app"
	delphid "github.com/iov-one/delphi/cmd/delphid/app"
	"github.com/iov-one/delphi/errors"
	"github.com/urfave/cli/v2"
)

var (
	chainIDFlag = &cli.StringFlag{
		Name:  "chain-id",
		Usage: "identifier of the chain",
		Value: "delphi-dev",
	}
	genesisFlag = &cli.StringFlag{
		Name:  "genesis",
		Usage: "genesis file to load instead of generating a development genesis",
	}
	ownerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "key file of the development genesis owner",
	}
	tickerFlag = &cli.StringFlag{
		Name:  "ticker",
		Usage: "ticker of the development token",
		Value: "DLP",
	}
	supplyFlag = &cli.Uint64Flag{
		Name:  "supply",
		Usage: "initial supply issued to the owner",
		Value: 1000000,
	}
	arbiterFlag = &cli.StringSliceFlag{
		Name:  "arbiter",
		Usage: "address of a listed arbiter, can be repeated",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level written to the configuration",
		Value: "info",
	}
	databaseFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "state database backend, goleveldb or memdb",
		Value: "goleveldb",
	}
)

var commandInit = &cli.Command{
	Name:  "init",
	Usage: "write the configuration and load the genesis state",
	Description: `
Initialize the home directory. Without --genesis a development genesis is
generated: the owner receives the whole token supply and owns the stake and
arbitration configurations.
`,
	Flags: []cli.Flag{
		chainIDFlag,
		genesisFlag,
		ownerFlag,
		tickerFlag,
		supplyFlag,
		arbiterFlag,
		logLevelFlag,
		databaseFlag,
		timeFlag,
	},
	Action: runInit,
}

func runInit(c *cli.Context) error {
	home := c.String(homeFlag.Name)
	if _, err := os.Stat(filepath.Join(home, configFileName)); err == nil {
		return errors.Wrapf(errors.ErrDuplicate, "%s already initialized", home)
	}

	gen, err := genesis(c)
	if err != nil {
		return err
	}
	cfg := defaultConfig(gen.ChainID)
	cfg.LogLevel = c.String(logLevelFlag.Name)
	cfg.Database = c.String(databaseFlag.Name)
	if err := writeConfig(home, cfg); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "encode genesis: %s", err)
	}
	if err := ioutil.WriteFile(filepath.Join(home, genesisFileName), raw, 0600); err != nil {
		return errors.Wrapf(errors.ErrInput, "write genesis: %s", err)
	}

	node, release, err := openNode(c)
	if err != nil {
		return err
	}
	defer release()
	if err := node.InitChain(blockTime(c), gen.AppState); err != nil {
		return errors.Wrap(err, "load genesis")
	}
	return printJSON(c, map[string]interface{}{
		"chain_id": gen.ChainID,
		"height":   node.Height(),
	})
}

func genesis(c *cli.Context) (delphiapp.Genesis, error) {
	if path := c.String(genesisFlag.Name); path != "" {
		return delphiapp.LoadGenesis(path)
	}

	ownerPath := c.String(ownerFlag.Name)
	if ownerPath == "" {
		return delphiapp.Genesis{}, errors.Wrap(errors.ErrEmpty, "either --genesis or --owner is required")
	}
	owner, err := loadKey(ownerPath)
	if err != nil {
		return delphiapp.Genesis{}, err
	}
	var arbiters []delphi.Address
	for _, enc := range c.StringSlice(arbiterFlag.Name) {
		addr, err := parseAddress(enc)
		if err != nil {
			return delphiapp.Genesis{}, err
		}
		arbiters = append(arbiters, addr)
	}
	state, err := delphid.DevGenesis(c.String(tickerFlag.Name), owner.PublicKey().Address(), c.Uint64(supplyFlag.Name), arbiters...)
	if err != nil {
		return delphiapp.Genesis{}, err
	}
	return delphiapp.Genesis{ChainID: c.String(chainIDFlag.Name), AppState: state}, nil
}
