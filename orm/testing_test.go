package orm

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

// Counter is a model used only in tests.
type Counter struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Owner    string           `json:"owner"`
	Count    int64            `json:"count"`
}

func (c *Counter) Marshal() ([]byte, error) {
	return delphi.Marshal(c)
}

func (c *Counter) Unmarshal(raw []byte) error {
	return delphi.Unmarshal(raw, c)
}

func (c *Counter) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return err
	}
	if c.Count < 0 {
		return errors.Wrap(errors.ErrModel, "negative count")
	}
	return nil
}

func newCounter(owner string, count int64) *Counter {
	return &Counter{
		Metadata: &delphi.Metadata{Schema: 1},
		Owner:    owner,
		Count:    count,
	}
}

func counterByOwner(m Model) ([]byte, error) {
	c, ok := m.(*Counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	if c.Owner == "" {
		return nil, nil
	}
	return []byte(c.Owner), nil
}

func counterByCount(m Model) ([]byte, error) {
	c, ok := m.(*Counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return EncodeSequence(uint64(c.Count)), nil
}

// Label is a second model type, never accepted by a Counter bucket.
type Label struct {
	Name string `json:"name"`
}

func (l *Label) Marshal() ([]byte, error)   { return delphi.Marshal(l) }
func (l *Label) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, l) }
func (l *Label) Validate() error            { return nil }
