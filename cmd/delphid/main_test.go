package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/orm"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/weavetest/assert"
	"github.com/iov-one/delphi/x/stake"
)

func tempHome(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "delphid")
	if err != nil {
		t.Fatalf("cannot create temp dir: %s", err)
	}
	return dir
}

func TestConfigRoundTrip(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)
	cfg := defaultConfig("delphi-test")
	cfg.Database = "memdb"
	assert.Nil(t, writeConfig(home, cfg))

	got, err := loadConfig(home)
	assert.Nil(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]struct {
		content string
		want    *errors.Error
	}{
		"unknown field": {
			content: "ChainID = \"delphi-test\"\nPort = 26657\n",
		},
		"unsupported database": {
			content: "ChainID = \"delphi-test\"\nLogLevel = \"info\"\nDatabase = \"mysql\"\n",
			want:    errors.ErrInput,
		},
		"invalid log level": {
			content: "ChainID = \"delphi-test\"\nLogLevel = \"verbose\"\nDatabase = \"memdb\"\n",
			want:    errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			home := tempHome(t)
			defer os.RemoveAll(home)
			path := filepath.Join(home, configFileName)
			if err := ioutil.WriteFile(path, []byte(tc.content), 0600); err != nil {
				t.Fatalf("cannot write config: %s", err)
			}
			_, err := loadConfig(home)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.want != nil {
				assert.IsErr(t, tc.want, err)
			}
		})
	}

	empty := tempHome(t)
	defer os.RemoveAll(empty)
	_, err := loadConfig(empty)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestParseStakeID(t *testing.T) {
	id, err := parseStakeID("42")
	assert.Nil(t, err)
	assert.Equal(t, orm.EncodeSequence(42), id)

	for _, enc := range []string{"", "0", "-1", "abc"} {
		_, err := parseStakeID(enc)
		assert.IsErr(t, errors.ErrInput, err)
	}
}

func TestSpenderAddress(t *testing.T) {
	addr := weavetest.NewCondition().Address()
	got, err := spenderAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, got)

	got, err = spenderAddress("stake:7")
	assert.Nil(t, err)
	assert.Equal(t, stake.StakeAddress(orm.EncodeSequence(7)), got)

	_, err = spenderAddress("stake:x")
	assert.IsErr(t, errors.ErrInput, err)
}

func TestHashCommand(t *testing.T) {
	var out bytes.Buffer
	app.Writer = &out
	defer func() { app.Writer = os.Stdout }()

	err := app.Run([]string{"delphid", "hash", "--vote", "0", "--salt="})
	assert.Nil(t, err)
	want := "e8e77626586f73b955364c7b4bbf0bb7f7685ebd40e852b164633a4acbd3244c\n"
	assert.Equal(t, want, out.String())
}
