package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Wrap adds description to err. It returns nil for a nil err, so a call
// can close a function:
//
//	return errors.Wrap(bucket.Save(db, obj), "save claim")
//
// The innermost wrap records the stack trace.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: description, parent: withStack(err)}
}

// Wrapf is Wrap with a formatted description.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithType wraps err with the Go type of obj.
func WithType(err error, obj interface{}) error {
	return Wrap(err, fmt.Sprintf("%T", obj))
}

// Recover turns a panic into an ErrPanic assigned to err. It must be
// deferred.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.parent.Error()
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Format adds the stack trace to %+v.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	st := stackTrace(e)
	if verb == 'v' && s.Flag('+') && st != nil {
		fmt.Fprintf(s, "%s%+v", e.Error(), st)
		return
	}
	fmt.Fprint(s, e.Error())
}

type causer interface {
	Cause() error
}

func withStack(err error) error {
	if stackTrace(err) != nil {
		return err
	}
	return errors.WithStack(err)
}

// stackTrace returns the first stack trace found down the chain of err.
func stackTrace(err error) errors.StackTrace {
	type tracer interface {
		StackTrace() errors.StackTrace
	}
	for err != nil {
		if t, ok := err.(tracer); ok {
			return t.StackTrace()
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}

// isNilErr also catches typed nil pointers hidden in an error interface.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
