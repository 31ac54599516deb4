package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"

	"notarygw/ledger/types"
)

// MockClient is the deterministic ledger tier. Every submitted transaction
// is included at block 1000+nonce with GasUsed equal to the submitted gas
// limit, so tests and local development behave identically run to run.
type MockClient struct {
	logger *log.Logger

	mu        sync.Mutex
	receipts  map[string]*types.TxReceipt
	pendingBy map[string]int // remaining polls before the receipt appears

	confirmAfter int
	balance      *big.Float
	submitErr    error
	receiptErr   error
}

// MockOption adjusts MockClient behaviour for tests.
type MockOption func(*MockClient)

// WithConfirmAfter makes each transaction stay invisible for n GetReceipt
// calls before it confirms, to exercise polling paths.
func WithConfirmAfter(n int) MockOption {
	return func(m *MockClient) { m.confirmAfter = n }
}

// WithBalance sets the mock wallet balance.
func WithBalance(b *big.Float) MockOption {
	return func(m *MockClient) { m.balance = b }
}

// WithSubmitError makes every SubmitTransaction fail with err.
func WithSubmitError(err error) MockOption {
	return func(m *MockClient) { m.submitErr = err }
}

// WithReceiptError makes every GetReceipt fail with err.
func WithReceiptError(err error) MockOption {
	return func(m *MockClient) { m.receiptErr = err }
}

// NewMockClient creates a MockClient.
func NewMockClient(logger *log.Logger, opts ...MockOption) *MockClient {
	m := &MockClient{
		logger:    logger,
		receipts:  make(map[string]*types.TxReceipt),
		pendingBy: make(map[string]int),
		balance:   big.NewFloat(10.5),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SubmitTransaction records the transaction as included.
func (m *MockClient) SubmitTransaction(ctx context.Context, tx *types.SignedTx) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.submitErr != nil {
		return "", m.submitErr
	}
	if tx == nil || tx.Hash == "" {
		return "", errors.New("signed transaction has no hash")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.receipts[tx.Hash]; exists {
		return "", fmt.Errorf("transaction %s already submitted", tx.Hash)
	}
	m.receipts[tx.Hash] = &types.TxReceipt{
		TxHash:      tx.Hash,
		State:       types.StateConfirmed,
		BlockNumber: 1000 + tx.Nonce,
		GasUsed:     tx.GasLimit,
		Timestamp:   mockBlockTime(tx.Nonce),
	}
	if m.confirmAfter > 0 {
		m.pendingBy[tx.Hash] = m.confirmAfter
	}
	return tx.Hash, nil
}

// EstimateGas returns the payload's own gas limit when set, otherwise the
// base transfer cost.
func (m *MockClient) EstimateGas(ctx context.Context, payload *types.TxPayload) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if payload != nil && payload.GasLimit > 0 {
		return payload.GasLimit, nil
	}
	return 21000, nil
}

// GetReceipt returns the recorded receipt, honouring the configured number
// of not-yet-visible polls.
func (m *MockClient) GetReceipt(ctx context.Context, txHash string) (*types.TxReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.receiptErr != nil {
		return nil, m.receiptErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.receipts[txHash]
	if !ok {
		return nil, types.ErrReceiptNotFound
	}
	if left := m.pendingBy[txHash]; left > 0 {
		m.pendingBy[txHash] = left - 1
		return nil, types.ErrReceiptNotFound
	}
	cp := *rec
	return &cp, nil
}

// GetBalance returns the configured mock balance for any address.
func (m *MockClient) GetBalance(ctx context.Context, address string) (*big.Float, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return new(big.Float).Copy(m.balance), nil
}

// Close is a no-op for the mock tier.
func (m *MockClient) Close() error {
	if m.logger != nil {
		m.logger.Println("[MockLedger] Closing...")
	}
	return nil
}

// Config returns nil; the mock tier has no chain-specific configuration.
func (m *MockClient) Config() any {
	return nil
}

// mockBlockTime derives a stable per-block timestamp so repeated runs of the
// deterministic tier produce identical receipts.
func mockBlockTime(nonce uint64) int64 {
	return 1700000000 + int64(nonce)*12
}

var _ Client = (*MockClient)(nil)
