package x

import (
	"math"
	"testing"

	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/weavetest/assert"
)

func TestAddAmounts(t *testing.T) {
	cases := map[string]struct {
		amounts []uint64
		want    uint64
		wantErr *errors.Error
	}{
		"no amounts": {
			want: 0,
		},
		"simple sum": {
			amounts: []uint64{1, 2, 3},
			want:    6,
		},
		"max value fits": {
			amounts: []uint64{math.MaxUint64 - 1, 1},
			want:    math.MaxUint64,
		},
		"overflow": {
			amounts: []uint64{math.MaxUint64, 1},
			wantErr: errors.ErrOverflow,
		},
		"overflow with a zero in between": {
			amounts: []uint64{math.MaxUint64 / 2, 0, math.MaxUint64/2 + 2},
			wantErr: errors.ErrOverflow,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := AddAmounts(tc.amounts...)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSubAmount(t *testing.T) {
	got, err := SubAmount(10, 4)
	assert.Nil(t, err)
	assert.Equal(t, uint64(6), got)

	_, err = SubAmount(4, 10)
	assert.IsErr(t, errors.ErrAmount, err)
}
