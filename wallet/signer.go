package wallet

import (
	"context"

	"notarygw/ledger/types"
)

// Signer is the key/signing collaborator boundary. Given a logical wallet
// identity it produces signed payloads; key material never crosses this
// interface back into the orchestration layer.
type Signer interface {
	// Address returns the wallet address. Never suspends.
	Address() string

	// SignTransaction signs the assembled payload and returns the
	// wire-encoded transaction together with its ledger hash.
	SignTransaction(ctx context.Context, payload *types.TxPayload) (*types.SignedTx, error)
}
