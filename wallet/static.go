package wallet

import (
	"context"
	"fmt"
	"strings"

	"notarygw/internal/sequence"
	"notarygw/ledger/types"
)

// DefaultMockAddress is the operating wallet address of the deterministic tier.
const DefaultMockAddress = "0x1111111111111111111111111111111111111111"

// StaticSigner is the deterministic signing tier: it performs no cryptography
// and derives the transaction hash from the reserved nonce, so receipts are
// stable across runs.
type StaticSigner struct {
	address string
}

// NewStaticSigner creates a StaticSigner for the given address. An empty
// address falls back to DefaultMockAddress.
func NewStaticSigner(address string) (*StaticSigner, error) {
	if address == "" {
		address = DefaultMockAddress
	}
	if !validAddress(address) {
		return nil, fmt.Errorf("malformed wallet address: %s", address)
	}
	return &StaticSigner{address: address}, nil
}

// Address returns the configured address.
func (s *StaticSigner) Address() string {
	return s.address
}

// SignTransaction derives a deterministic signed payload from the nonce.
func (s *StaticSigner) SignTransaction(ctx context.Context, payload *types.TxPayload) (*types.SignedTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("payload cannot be nil")
	}
	return &types.SignedTx{
		Raw:      payload.Data,
		Hash:     sequence.TxHash(payload.Nonce),
		Nonce:    payload.Nonce,
		GasLimit: payload.GasLimit,
	}, nil
}

func validAddress(addr string) bool {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return false
	}
	for _, r := range addr[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

var _ Signer = (*StaticSigner)(nil)
