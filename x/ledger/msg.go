package ledger

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
)

const maxMemoSize = 128

func init() {
	delphi.RegisterMsg(&SendMsg{}, "delphi/ledger/SendMsg")
	delphi.RegisterMsg(&ApproveMsg{}, "delphi/ledger/ApproveMsg")
}

// SendMsg moves tokens from the source wallet to the destination wallet.
// The source must sign the transaction.
type SendMsg struct {
	Metadata    *delphi.Metadata `json:"metadata"`
	Ticker      string           `json:"ticker"`
	Source      delphi.Address   `json:"source"`
	Destination delphi.Address   `json:"destination"`
	Amount      uint64           `json:"amount"`
	Memo        string           `json:"memo"`
}

var _ delphi.Msg = (*SendMsg)(nil)

func (SendMsg) Path() string {
	return "ledger/send"
}

func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !IsTicker(m.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrInput, "invalid ticker"))
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", ErrInvalidAmount, "must be positive"))
	}
	if len(m.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInput, "cannot be longer than %d", maxMemoSize))
	}
	return errs
}

func (m *SendMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *SendMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }

// ApproveMsg sets the amount of tokens the spender may move out of the
// owner's wallet. The owner must sign the transaction. A zero amount
// revokes a previous approval.
type ApproveMsg struct {
	Metadata *delphi.Metadata `json:"metadata"`
	Ticker   string           `json:"ticker"`
	Owner    delphi.Address   `json:"owner"`
	Spender  delphi.Address   `json:"spender"`
	Amount   uint64           `json:"amount"`
}

var _ delphi.Msg = (*ApproveMsg)(nil)

func (ApproveMsg) Path() string {
	return "ledger/approve"
}

func (m *ApproveMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !IsTicker(m.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrInput, "invalid ticker"))
	}
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Spender", m.Spender.Validate())
	if m.Owner.Equals(m.Spender) {
		errs = errors.Append(errs, errors.Field("Spender", errors.ErrInput, "cannot approve self"))
	}
	return errs
}

func (m *ApproveMsg) Marshal() ([]byte, error)   { return delphi.Marshal(m) }
func (m *ApproveMsg) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, m) }
