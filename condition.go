package delphi

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/iov-one/delphi/errors"
)

// (?s) lets the data section hold any byte, newlines included.
var conditionRx = regexp.MustCompile(`(?s)^([a-zA-Z0-9_\-]{3,12})/([a-zA-Z0-9_\-]{3,12})/(.+)$`)

// Condition names who may authorize an action, as
//
//	<extension>/<type>/<data>
//
// A signature yields the condition of its public key. Extensions yield
// conditions of their own to act for the accounts they control, like the
// stake escrow holding collateral or the protocol issuing a ruling.
type Condition []byte

// NewCondition joins the three sections of a condition.
func NewCondition(ext, typ string, data []byte) Condition {
	c := make(Condition, 0, len(ext)+len(typ)+len(data)+2)
	c = append(c, ext...)
	c = append(c, '/')
	c = append(c, typ...)
	c = append(c, '/')
	return append(c, data...)
}

// Parse splits the condition into its extension, type and data.
func (c Condition) Parse() (ext, typ string, data []byte, err error) {
	m := conditionRx.FindSubmatch(c)
	if m == nil {
		return "", "", nil, errors.Wrapf(errors.ErrInput, "condition: %X", []byte(c))
	}
	return string(m[1]), string(m[2]), m[3], nil
}

// Validate fails if the condition is not well formed.
func (c Condition) Validate() error {
	_, _, _, err := c.Parse()
	return err
}

// Address is the digest of the condition.
func (c Condition) Address() Address {
	return NewAddress(c)
}

func (c Condition) Equals(other Condition) bool {
	return bytes.Equal(c, other)
}

// String keeps extension and type readable and prints the data as hex.
func (c Condition) String() string {
	ext, typ, data, err := c.Parse()
	if err != nil {
		return fmt.Sprintf("Invalid Condition: %X", []byte(c))
	}
	return fmt.Sprintf("%s/%s/%X", ext, typ, data)
}

// MarshalJSON uses the String form. A nil condition is "".
func (c Condition) MarshalJSON() ([]byte, error) {
	if c == nil {
		return json.Marshal("")
	}
	return json.Marshal(c.String())
}

func (c *Condition) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	cond, err := parseCondition(s)
	if err != nil {
		return err
	}
	*c = cond
	return nil
}

// parseCondition reads the String form back. An empty string gives nil.
func parseCondition(s string) (Condition, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return nil, errors.Wrap(errors.ErrInput, "invalid condition format")
	}
	data, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "malformed condition data: %s", err)
	}
	return NewCondition(parts[0], parts[1], data), nil
}
