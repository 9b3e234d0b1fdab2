package weavetest

import "github.com/iov-one/delphi"

// calls counts the Check and Deliver calls of a test double.
type calls struct {
	check, deliver int
}

func (c *calls) CheckCallCount() int   { return c.check }
func (c *calls) DeliverCallCount() int { return c.deliver }
func (c *calls) CallCount() int        { return c.check + c.deliver }

// Decorator passes every call to the next handler, unless CheckErr or
// DeliverErr is set. Then the error is returned and the next handler is not
// called. All calls are counted.
type Decorator struct {
	calls
	CheckErr   error
	DeliverErr error
}

var _ delphi.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx, next delphi.Checker) (*delphi.CheckResult, error) {
	d.check++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx, next delphi.Deliverer) (*delphi.DeliverResult, error) {
	d.deliver++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}
