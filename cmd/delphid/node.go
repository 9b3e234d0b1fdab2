package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"time"

	"github.com/iov-one/delphi"
	delphid "github.com/iov-one/delphi/cmd/delphid/app"
	"github.com/iov-one/delphi/crypto"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/urfave/cli/v2"
)

// closer is implemented by stores that hold a database handle.
type closer interface {
	Close()
}

// openNode loads the configuration from the home directory and opens the
// application state. The returned function releases the database.
func openNode(c *cli.Context) (*delphid.Node, func(), error) {
	home := c.String(homeFlag.Name)
	cfg, err := loadConfig(home)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	var dbPath string
	if cfg.Database != "memdb" {
		dbPath = filepath.Join(home, dataDirName, "delphi.db")
	}
	kv, err := delphid.CommitKVStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if cl, ok := kv.(closer); ok {
			cl.Close()
		}
	}
	application := delphid.Application("delphi", kv, logger, false)
	return delphid.NewNode(application, cfg.ChainID), release, nil
}

// blockTime returns the time declared with the time flag or the current
// time.
func blockTime(c *cli.Context) time.Time {
	if t := c.Timestamp(timeFlag.Name); t != nil {
		return t.UTC()
	}
	return time.Now().UTC()
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "key file: %s", err)
	}
	var kf delphid.KeyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "key file %s: %s", path, err)
	}
	if kf.Secret == nil {
		return nil, errors.Wrapf(errors.ErrEmpty, "key file %s: no secret", path)
	}
	return kf.Secret, nil
}

func parseAddress(enc string) (delphi.Address, error) {
	addr, err := delphi.ParseAddress(enc)
	if err != nil {
		return nil, errors.Wrapf(err, "address %q", enc)
	}
	return addr, nil
}

// parseStakeID accepts the numeric stake id as printed by create-stake.
func parseStakeID(enc string) ([]byte, error) {
	n, err := strconv.ParseUint(enc, 10, 64)
	if err != nil || n == 0 {
		return nil, errors.Wrapf(errors.ErrInput, "invalid stake id %q", enc)
	}
	return orm.EncodeSequence(n), nil
}

func parseClaimID(enc string) ([]byte, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "claim id: %s", err)
	}
	return raw, nil
}

func printJSON(c *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "encode output: %s", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}
