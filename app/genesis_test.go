package app

import (
	"testing"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/store"
	"github.com/iov-one/delphi/weavetest/assert"
)

const dummyKey = "dummy"

type dummyInit struct{}

func (dummyInit) FromGenesis(opts delphi.Options, kv delphi.KVStore) error {
	var value string
	if err := opts.ReadOptions(dummyKey, &value); err != nil {
		return err
	}
	return kv.Set([]byte(dummyKey), []byte(value))
}

type countInit struct {
	called int
}

func (c *countInit) FromGenesis(opts delphi.Options, kv delphi.KVStore) error {
	c.called++
	return nil
}

func TestLoadGenesis(t *testing.T) {
	cases := map[string]struct {
		file        string
		wantErr     *errors.Error
		wantInitErr *errors.Error
		wantChain   string
		wantCalled  int
		wantValue   []byte
	}{
		"no such file": {
			file:    "testdata/missing.json",
			wantErr: errors.ErrInput,
		},
		"invalid chain id": {
			file:    "testdata/invalid_chain.json",
			wantErr: errors.ErrInput,
		},
		"proper genesis": {
			file:       "testdata/genesis.json",
			wantChain:  "test-chain-67",
			wantCalled: 1,
			wantValue:  []byte("secret"),
		},
		"initializer rejects the content": {
			file:        "testdata/bad_genesis.json",
			wantChain:   "super-chain-22",
			wantInitErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			gen, err := LoadGenesis(tc.file)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %+v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, tc.wantChain, gen.ChainID)

			counter := &countInit{}
			db := store.MemStore()
			err = ChainInitializers(dummyInit{}, counter).FromGenesis(gen.AppState, db)
			if !tc.wantInitErr.Is(err) {
				t.Fatalf("want %+v init error, got %+v", tc.wantInitErr, err)
			}
			assert.Equal(t, tc.wantCalled, counter.called)

			got, err := db.Get([]byte(dummyKey))
			assert.Nil(t, err)
			assert.Equal(t, tc.wantValue, got)
		})
	}
}
