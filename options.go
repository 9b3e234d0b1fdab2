package delphi

import (
	"encoding/json"

	"github.com/iov-one/delphi/errors"
)

// Options is the app_state of a genesis file. Each extension reads the
// sections it owns.
type Options map[string]json.RawMessage

// ReadOptions decodes the section key into obj. A missing section leaves
// obj untouched.
func (o Options) ReadOptions(key string, obj interface{}) error {
	raw := o[key]
	if len(raw) == 0 {
		return nil
	}
	return decodeOption(key, raw, obj)
}

// Stream reads the section key as a list and returns a function decoding
// one element per call. Once the list is exhausted the function returns
// ErrEmpty, and ErrState on any later call.
func (o Options) Stream(key string) (func(obj interface{}) error, error) {
	raw, ok := o[key]
	if !ok {
		return nil, errors.Wrapf(errors.ErrEmpty, "no %q in genesis", key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "genesis %q: %s", key, err)
	}
	next := 0
	return func(obj interface{}) error {
		switch {
		case next > len(items):
			return errors.Wrap(errors.ErrState, "stream already consumed")
		case next == len(items):
			next++
			return errors.ErrEmpty
		}
		next++
		return decodeOption(key, items[next-1], obj)
	}, nil
}

func decodeOption(key string, raw json.RawMessage, obj interface{}) error {
	if err := json.Unmarshal(raw, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis %q: %s", key, err)
	}
	return nil
}
