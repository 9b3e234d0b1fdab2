package delphi

import (
	"github.com/iov-one/delphi/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is what a successful DeliverTx returns. Failures are
// always reported as errors.
type DeliverResult struct {
	// Data is meant for programs, like the id of a created entity.
	Data []byte
	// Log is meant for humans.
	Log string
	// Tags are the facts the transaction produced, like the claim it
	// opened or how a settlement ended.
	Tags []common.KVPair
}

// Tag records a fact about the transaction.
func (d *DeliverResult) Tag(key, value string) {
	d.Tags = append(d.Tags, common.KVPair{Key: []byte(key), Value: []byte(value)})
}

// TagValue returns the first tag recorded under key.
func (d *DeliverResult) TagValue(key string) (string, bool) {
	for _, t := range d.Tags {
		if string(t.Key) == key {
			return string(t.Value), true
		}
	}
	return "", false
}

func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{Data: d.Data, Log: d.Log, Tags: d.Tags}
}

// CheckResult is what a successful CheckTx returns.
type CheckResult struct {
	Data []byte
	Log  string
}

func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{Data: c.Data, Log: c.Log}
}

// DeliverOrError is the DeliverTx response of a handler call.
func DeliverOrError(res *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return res.ToABCI()
}

// CheckOrError is the CheckTx response of a handler call.
func CheckOrError(res *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return res.ToABCI()
}

// DeliverTxError reports err in a DeliverTx response. Outside of debug
// mode, errors of no registered kind are redacted.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := failure("cannot deliver tx: ", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError reports err in a CheckTx response, like DeliverTxError.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := failure("cannot check tx: ", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func failure(prefix string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, prefix + log
}

// ParseDeliverOrError turns a DeliverTx response back into a result, or
// into an error of the kind its code was registered for.
func ParseDeliverOrError(res abci.ResponseDeliverTx) (*DeliverResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return &DeliverResult{Data: res.Data, Log: res.Log, Tags: res.Tags}, nil
}
