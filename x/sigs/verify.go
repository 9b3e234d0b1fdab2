package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/crypto"
	"github.com/iov-one/delphi/errors"
)

// signVersion starts every signed message.
var signVersion = []byte{0, 0xCA, 0xFE, 0}

// signBytes is what a signer of payload actually signs: the sha512 of
//
//	version (4) | len(chainID) (1) | chainID | sequence (8, big endian) | payload
//
// Binding the chain and sequence stops a signature from being replayed on
// another chain or twice on the same one.
func signBytes(payload []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !delphi.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	buf := make([]byte, 0, len(signVersion)+1+len(chainID)+8+len(payload))
	buf = append(buf, signVersion...)
	buf = append(buf, byte(len(chainID)))
	buf = append(buf, chainID...)
	buf = append(buf, make([]byte, 8)...)
	binary.BigEndian.PutUint64(buf[len(buf)-8:], uint64(seq))
	buf = append(buf, payload...)
	sum := sha512.Sum512(buf)
	return sum[:], nil
}

// SignTx signs tx for chainID with the sequence seq of the signer.
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	msg, err := signBytes(payload, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, err
	}
	return &StdSignature{Pubkey: signer.PublicKey(), Signature: sig, Sequence: seq}, nil
}

// verifyTx checks every signature of tx and consumes their sequences. It
// returns the conditions of the signers, in signature order.
func verifyTx(db delphi.KVStore, tx SignedTx, chainID string) ([]delphi.Condition, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()
	signers := make([]delphi.Condition, 0, len(sigs))
	b := NewBucket()
	for _, sig := range sigs {
		if err := sig.Validate(); err != nil {
			return nil, err
		}
		acc, err := loadAccount(db, b, sig.Pubkey)
		if err != nil {
			return nil, err
		}
		msg, err := signBytes(payload, chainID, sig.Sequence)
		if err != nil {
			return nil, err
		}
		if !acc.Pubkey.Verify(msg, sig.Signature) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
		}
		if err := acc.use(sig.Sequence); err != nil {
			return nil, err
		}
		if _, err := b.Put(db, acc.Pubkey.Address(), acc); err != nil {
			return nil, err
		}
		signers = append(signers, acc.Pubkey.Condition())
	}
	return signers, nil
}
