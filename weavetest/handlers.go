package weavetest

import "github.com/iov-one/delphi"

// Handler returns copies of the configured results and errors and counts
// its calls.
type Handler struct {
	calls
	CheckResult   delphi.CheckResult
	CheckErr      error
	DeliverResult delphi.DeliverResult
	DeliverErr    error
}

var _ delphi.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	h.check++
	res := h.CheckResult
	return &res, h.CheckErr
}

func (h *Handler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	h.deliver++
	res := h.DeliverResult
	return &res, h.DeliverErr
}

// WriteHandler writes the key value pair to the store on every call and
// returns Err afterwards. Use it to ensure that a failed transaction does
// not persist partial writes.
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ delphi.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, h.Err
}

func (h *WriteHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &delphi.DeliverResult{}, h.Err
}
