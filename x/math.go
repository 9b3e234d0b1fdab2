package x

import (
	"math"

	"github.com/iov-one/delphi/errors"
)

// AddAmounts returns the sum of all given amounts or an overflow error if
// the result does not fit in uint64.
func AddAmounts(amounts ...uint64) (uint64, error) {
	var total uint64
	for _, a := range amounts {
		if a > math.MaxUint64-total {
			return 0, errors.Wrapf(errors.ErrOverflow, "%d + %d", total, a)
		}
		total += a
	}
	return total, nil
}

// SubAmount returns a - b or an error if b is greater than a.
func SubAmount(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errors.Wrapf(errors.ErrAmount, "cannot subtract %d from %d", b, a)
	}
	return a - b, nil
}
