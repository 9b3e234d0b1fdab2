package app

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/crypto"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x/sigs"
)

// Tx is the transaction format of the delphi application. It carries
// exactly one message and the signatures authorizing it.
type Tx struct {
	Msg        delphi.Msg           `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

// make sure tx fulfills all interfaces
var _ delphi.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (delphi.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewTx returns an unsigned transaction carrying given message.
func NewTx(msg delphi.Msg) *Tx {
	return &Tx{Msg: msg}
}

// GetMsg returns the message carried by the transaction.
func (tx *Tx) GetMsg() (delphi.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return tx.Msg, nil
}

// GetSignatures returns the signatures attached to the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign...
func (tx *Tx) GetSignBytes() ([]byte, error) {
	// temporarily unset the signatures, as the sign bytes
	// should only come from the data itself, not previous signatures
	signatures := tx.Signatures
	tx.Signatures = nil

	bz, err := tx.Marshal()

	// reset the signatures after calculating the bytes
	tx.Signatures = signatures
	return bz, err
}

// Sign appends the signature of the signer using given sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

func (tx *Tx) Marshal() ([]byte, error)   { return delphi.Marshal(tx) }
func (tx *Tx) Unmarshal(raw []byte) error { return delphi.Unmarshal(raw, tx) }
