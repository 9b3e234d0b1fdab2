package orm

import (
	"github.com/iov-one/delphi"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	delphi.Persistent
	Validate() error
}

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model. It is used as a destination when loading many models at once.
//
// Because of the lack of generics, type cannot be more precise. Both a
// slice of values (*[]Stake) and a slice of pointers (*[]*Stake) are
// accepted.
type ModelSlicePtr interface{}
