package types

import (
	"errors"
	"math/big"
)

// TransactionState is the lifecycle of a single broadcast transaction as
// observed by the orchestrator. Terminal once confirmed or failed.
type TransactionState string

const (
	StatePending   TransactionState = "pending"
	StateConfirmed TransactionState = "confirmed"
	StateFailed    TransactionState = "failed"
)

// Terminal reports whether the state can no longer change.
func (s TransactionState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// ErrReceiptNotFound is returned by a ledger client when the transaction is
// not yet visible on the ledger. Callers map it to StatePending rather than
// treating it as a failure.
var ErrReceiptNotFound = errors.New("transaction receipt not found")

// TxPayload is an unsigned transaction as assembled by the orchestrator.
// The nonce is reserved before any network call so concurrent submissions
// never collide.
type TxPayload struct {
	Nonce    uint64
	From     string
	To       string
	Data     []byte
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
	ChainID  int64
}

// SignedTx is the output of the signing collaborator. Raw carries the
// wire-encoded transaction; Hash is the transaction identifier it will be
// known by on the ledger. Key material never appears here.
type SignedTx struct {
	Raw      []byte
	Hash     string
	Nonce    uint64
	GasLimit uint64
}

// TxReceipt describes an included (or failed) transaction.
// BlockNumber, GasUsed and Timestamp are meaningful once State is terminal.
type TxReceipt struct {
	TxHash      string
	State       TransactionState
	BlockNumber uint64
	GasUsed     uint64
	Timestamp   int64
}
