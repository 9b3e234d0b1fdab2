package delphi_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionSections(t *testing.T) {
	Convey("a condition splits into its sections", t, func() {
		cond := delphi.NewCondition("stake", "escrow", []byte{0, 0, 0, 7})
		ext, typ, data, err := cond.Parse()
		So(err, ShouldBeNil)
		So(ext, ShouldEqual, "stake")
		So(typ, ShouldEqual, "escrow")
		So(data, ShouldResemble, []byte{0, 0, 0, 7})

		Convey("and prints its data as hex", func() {
			So(cond.String(), ShouldEqual, "stake/escrow/00000007")
			So(cond.String(), ShouldNotEqual, fmt.Sprintf("%X", []byte(cond)))
		})

		Convey("and digests into an address", func() {
			So(cond.Address(), ShouldHaveLength, delphi.AddressLength)
			So(cond.Address(), ShouldResemble, delphi.NewAddress(cond))
		})
	})

	Convey("malformed conditions fail", t, func() {
		So(delphi.Condition("no-slashes").Validate(), ShouldNotBeNil)
		So(delphi.NewCondition("a", "bb", []byte{1}).Validate(), ShouldNotBeNil)
		So(delphi.NewCondition("arbitration", "protocol", nil).Validate(), ShouldNotBeNil)
		So(delphi.Condition("x/y/z").String(), ShouldStartWith, "Invalid Condition")
	})
}

func TestConditionJSON(t *testing.T) {
	protocol := delphi.NewCondition("arbitration", "protocol", []byte("rule"))

	raw, err := json.Marshal(protocol)
	require.NoError(t, err)
	assert.Equal(t, `"arbitration/protocol/72756C65"`, string(raw))

	var back delphi.Condition
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equals(protocol))

	raw, err = json.Marshal(delphi.Condition(nil))
	require.NoError(t, err)
	assert.Equal(t, `""`, string(raw))

	cases := []struct {
		json    string
		wantErr *errors.Error
		want    delphi.Condition
	}{
		{`"sigs/ed25519/0102"`, nil, delphi.NewCondition("sigs", "ed25519", []byte{1, 2})},
		{`""`, nil, nil},
		{`"sigs/0102"`, errors.ErrInput, nil},
		{`"sigs/ed25519/zz"`, errors.ErrInput, nil},
		{`42`, errors.ErrInput, nil},
	}
	for _, tc := range cases {
		t.Run(tc.json, func(t *testing.T) {
			var got delphi.Condition
			err := json.Unmarshal([]byte(tc.json), &got)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			assert.True(t, got.Equals(tc.want))
		})
	}
}
