package ledger

import (
	"context"
	"math/big"

	"notarygw/ledger/types"
)

// Client defines the generic interface for ledger interactions.
// This interface is chain-agnostic; the orchestration layer treats the
// implementation as a vetted external collaborator.
type Client interface {
	// SubmitTransaction broadcasts an already-signed transaction and returns
	// the transaction hash it will be known by on the ledger.
	SubmitTransaction(ctx context.Context, tx *types.SignedTx) (string, error)

	// EstimateGas asks the ledger for a gas estimate for the given payload.
	EstimateGas(ctx context.Context, payload *types.TxPayload) (uint64, error)

	// GetReceipt fetches the receipt for a transaction. Returns
	// types.ErrReceiptNotFound while the transaction is not yet visible.
	GetReceipt(ctx context.Context, txHash string) (*types.TxReceipt, error)

	// GetBalance returns the balance of an address in the ledger's main unit.
	GetBalance(ctx context.Context, address string) (*big.Float, error)

	// Close closes the ledger client and releases resources.
	Close() error

	// Config returns the configuration associated with the client.
	Config() any // Return any to accommodate different config types
}
