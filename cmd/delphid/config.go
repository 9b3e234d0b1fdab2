package main

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"unicode"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/naoina/toml"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	configFileName  = "config.toml"
	genesisFileName = "genesis.json"
	dataDirName     = "data"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Config is the node configuration stored in the home directory.
type Config struct {
	ChainID  string
	LogLevel string
	// Database is the backend of the state database. Use "memdb" to keep
	// the state in memory only.
	Database string
}

func defaultConfig(chainID string) Config {
	return Config{
		ChainID:  chainID,
		LogLevel: "info",
		Database: "goleveldb",
	}
}

func (c Config) validate() error {
	if !delphi.IsValidChainID(c.ChainID) {
		return errors.Wrapf(errors.ErrInput, "invalid chain id %q", c.ChainID)
	}
	switch c.Database {
	case "goleveldb", "memdb":
	default:
		return errors.Wrapf(errors.ErrInput, "unsupported database %q", c.Database)
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		return errors.Wrapf(errors.ErrInput, "log level: %s", err)
	}
	return nil
}

func loadConfig(home string) (Config, error) {
	var cfg Config
	file := filepath.Join(home, configFileName)
	f, err := os.Open(file)
	if err != nil {
		return cfg, errors.Wrapf(errors.ErrNotFound, "config: %s", err)
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.Wrap(errors.ErrInput, file+", "+err.Error())
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func writeConfig(home string, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "encode config: %s", err)
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return errors.Wrapf(errors.ErrInput, "home directory: %s", err)
	}
	return ioutil.WriteFile(filepath.Join(home, configFileName), out, 0600)
}

// newLogger returns the node logger filtered by the configured level.
func newLogger(cfg Config) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr)).With("module", "delphi")
	opt, err := log.AllowLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "log level: %s", err)
	}
	return log.NewFilter(logger, opt), nil
}
