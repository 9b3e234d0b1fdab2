package errors

import "fmt"

// Field ties err to the attribute that caused it, so a client can point at
// the offending input. Attributes use Go names, nested ones a dot path
// (Claim.Fee) and list elements their index (Voters.2). A nil err gives
// nil. Args, if any, format description.
func Field(name string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{field: name, desc: description, parent: withStack(err)}
}

// AppendField adds the field error of name to errs. It is meant to collect
// the validation of each attribute in turn:
//
//	errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

type fieldError struct {
	field  string
	desc   string
	parent error
}

func (e *fieldError) Error() string {
	if e.desc != "" {
		return fmt.Sprintf("field %q: %s: %s", e.field, e.desc, e.parent)
	}
	return fmt.Sprintf("field %q: %s", e.field, e.parent)
}

func (e *fieldError) Cause() error  { return e.parent }
func (e *fieldError) Field() string { return e.field }

// FieldErrors collects every error of the tree of err that is tied to the
// attribute name.
func FieldErrors(err error, name string) []error {
	var found []error
	for !isNilErr(err) {
		if f, ok := err.(interface{ Field() string }); ok && f.Field() == name {
			return append(found, err)
		}
		if m, ok := err.(unpacker); ok {
			for _, inner := range m.Unpack() {
				found = append(found, FieldErrors(inner, name)...)
			}
			return found
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return found
}
