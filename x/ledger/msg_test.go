package ledger

import (
	"strings"
	"testing"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/weavetest"
	"github.com/iov-one/delphi/weavetest/assert"
)

func TestSendMsgValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	cases := map[string]struct {
		msg        SendMsg
		wantErrors map[string]*errors.Error
	}{
		"valid": {
			msg: SendMsg{
				Metadata:    &delphi.Metadata{Schema: 1},
				Ticker:      "DLP",
				Source:      alice,
				Destination: bob,
				Amount:      1,
				Memo:        "rent",
			},
			wantErrors: map[string]*errors.Error{
				"Metadata":    nil,
				"Ticker":      nil,
				"Source":      nil,
				"Destination": nil,
				"Amount":      nil,
				"Memo":        nil,
			},
		},
		"everything wrong": {
			msg: SendMsg{
				Ticker: "d",
				Source: delphi.Address("x"),
				Memo:   strings.Repeat("m", maxMemoSize+1),
			},
			wantErrors: map[string]*errors.Error{
				"Metadata":    errors.ErrMetadata,
				"Ticker":      errors.ErrInput,
				"Source":      errors.ErrInput,
				"Destination": errors.ErrInput,
				"Amount":      ErrInvalidAmount,
				"Memo":        errors.ErrInput,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			for field, want := range tc.wantErrors {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestApproveMsgValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	cases := map[string]struct {
		msg        ApproveMsg
		wantErrors map[string]*errors.Error
	}{
		"valid revoke": {
			msg: ApproveMsg{
				Metadata: &delphi.Metadata{Schema: 1},
				Ticker:   "DLP",
				Owner:    alice,
				Spender:  bob,
			},
			wantErrors: map[string]*errors.Error{
				"Metadata": nil,
				"Ticker":   nil,
				"Owner":    nil,
				"Spender":  nil,
			},
		},
		"missing spender": {
			msg: ApproveMsg{
				Metadata: &delphi.Metadata{Schema: 1},
				Ticker:   "DLP",
				Owner:    alice,
				Amount:   5,
			},
			wantErrors: map[string]*errors.Error{
				"Metadata": nil,
				"Owner":    nil,
				"Spender":  errors.ErrInput,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			for field, want := range tc.wantErrors {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}
