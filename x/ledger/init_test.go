package ledger

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/store"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/weavetest/assert"
)

func TestGenesis(t *testing.T) {
	alice := weavetest.NewCondition().Address()

	cases := map[string]struct {
		genesis string
		wantErr *errors.Error
		want    uint64
	}{
		"tokens and balances": {
			genesis: fmt.Sprintf(`{"ledger": {
				"tokens": [{"ticker": "DLP", "name": "delphi", "decimals": 9}],
				"balances": [
					{"ticker": "DLP", "address": "%s", "amount": 70},
					{"ticker": "DLP", "address": "%s", "amount": 30}
				]
			}}`, alice, alice),
			want: 100,
		},
		"empty genesis": {
			genesis: `{}`,
		},
		"balance of unknown token": {
			genesis: fmt.Sprintf(`{"ledger": {
				"balances": [{"ticker": "DLP", "address": "%s", "amount": 70}]
			}}`, alice),
			wantErr: errors.ErrNotFound,
		},
		"duplicated token": {
			genesis: `{"ledger": {"tokens": [
				{"ticker": "DLP", "name": "delphi", "decimals": 9},
				{"ticker": "DLP", "name": "delphi", "decimals": 9}
			]}}`,
			wantErr: errors.ErrDuplicate,
		},
		"invalid token": {
			genesis: `{"ledger": {"tokens": [{"ticker": "DLP", "name": "", "decimals": 9}]}}`,
			wantErr: errors.ErrInput,
		},
		"invalid ticker": {
			genesis: `{"ledger": {"tokens": [{"ticker": "dlp", "name": "delphi", "decimals": 9}]}}`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts delphi.Options
			if err := json.Unmarshal([]byte(tc.genesis), &opts); err != nil {
				t.Fatalf("cannot decode genesis: %s", err)
			}
			db := store.MemStore()
			err := Initializer{}.FromGenesis(opts, db)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			got, err := NewController().Balance(db, ticker, alice)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
