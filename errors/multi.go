package errors

import (
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// The result is nil if no error was given, the error itself if only one was
// given and a multi error otherwise. A multi error satisfies Is for any of
// the errors it contains.
func Append(errs ...error) error {
	var res multiErr
	for _, err := range errs {
		if isNilErr(err) {
			continue
		}
		if m, ok := err.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, err)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

type unpacker interface {
	Unpack() []error
}

type multiErr []error

func (m multiErr) Error() string {
	msgs := make([]string, len(m))
	for i, e := range m {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unpack implements the unpacker interface.
func (m multiErr) Unpack() []error {
	return m
}

// ABCICode returns the code of the first contained error.
func (m multiErr) ABCICode() uint32 {
	return abciCode(m[0])
}
