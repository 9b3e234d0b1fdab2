package app

import (
	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/app"
	"github.com/iov-one/delphi/crypto"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x/sigs"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Node signs and executes transactions against an in process application.
// It tracks the sequence of every signer, so that more than one
// transaction of the same signer can be delivered within a block.
type Node struct {
	*app.Engine
	chainID string
	nonces  map[string]int64
}

// NewNode returns a node driving given application.
func NewNode(application abci.Application, chainID string) *Node {
	return &Node{
		Engine:  app.NewEngine(application, chainID),
		chainID: chainID,
		nonces:  make(map[string]int64),
	}
}

// ChainID returns the chain the node signs transactions for.
func (n *Node) ChainID() string {
	return n.chainID
}

// Nonce returns the sequence the next signature of given address must use.
func (n *Node) Nonce(addr delphi.Address) (int64, error) {
	if seq, ok := n.nonces[addr.String()]; ok {
		return seq, nil
	}
	var user sigs.Account
	switch err := n.QueryOne("/auth", addr, &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "query sequence")
	}
}

// SignTx returns a serialized transaction carrying the message, signed by
// all given keys.
func (n *Node) SignTx(msg delphi.Msg, keys ...*crypto.PrivateKey) ([]byte, error) {
	tx := NewTx(msg)
	for _, k := range keys {
		seq, err := n.Nonce(k.PublicKey().Address())
		if err != nil {
			return nil, err
		}
		if err := tx.Sign(k, n.chainID, seq); err != nil {
			return nil, err
		}
	}
	return tx.Marshal()
}

// Deliver signs the message and executes it within the current block.
func (n *Node) Deliver(msg delphi.Msg, keys ...*crypto.PrivateKey) (*delphi.DeliverResult, error) {
	raw, err := n.SignTx(msg, keys...)
	if err != nil {
		return nil, err
	}
	res, err := n.DeliverTx(raw)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		addr := k.PublicKey().Address()
		seq, err := n.Nonce(addr)
		if err != nil {
			return nil, err
		}
		n.nonces[addr.String()] = seq + 1
	}
	return res, nil
}
