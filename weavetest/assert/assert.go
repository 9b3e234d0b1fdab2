// Package assert holds the few assertions the test suites of this module
// share. Every assertion stops the test on failure.
package assert

import (
	"reflect"
	"testing"

	"github.com/iov-one/delphi/errors"
)

// Nil fails unless value is nil or a typed nil (pointer, slice, map...).
func Nil(t testing.TB, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of wrapped errors.
		t.Fatalf("want nil, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// Equal fails unless both values are deeply equal.
func Equal(t testing.TB, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics fails unless fn panics.
func Panics(t testing.TB, fn func()) {
	t.Helper()
	if !panics(fn) {
		t.Fatal("want a panic")
	}
}

func panics(fn func()) (panicked bool) {
	defer func() {
		panicked = recover() != nil
	}()
	fn()
	return false
}

// IsErr fails unless got is want or is an error of the want kind.
func IsErr(t testing.TB, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if kind, ok := want.(interface{ Is(error) bool }); ok && kind.Is(got) {
		return
	}
	t.Fatalf("want %q error, got %+v", want, got)
}

// FieldError fails unless err carries exactly one error for the field and
// that error is of the want kind. A nil want asserts that the field has no
// error at all.
func FieldError(t testing.TB, err error, field string, want *errors.Error) {
	t.Helper()
	errs := errors.FieldErrors(err, field)
	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("want no %s error, got %q", field, errs)
		}
		return
	}
	switch len(errs) {
	case 0:
		t.Fatalf("want %q error for %s, got none in %+v", want, field, err)
	case 1:
		if !want.Is(errs[0]) {
			t.Fatalf("want %q error for %s, got %q", want, field, errs[0])
		}
	default:
		t.Fatalf("want a single %s error, got %q", field, errs)
	}
}
