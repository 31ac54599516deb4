package sequence

import (
	"fmt"
	"sync/atomic"
)

// Sequence is a process-unique, strictly increasing identifier source.
// Admin and notarization paths share one Sequence so that transaction
// identifiers from both can be totally ordered in a merged audit stream.
// Construct one per gateway session; do not share across tests.
type Sequence struct {
	n atomic.Uint64
}

// New creates a Sequence starting at zero.
func New() *Sequence {
	return &Sequence{}
}

// Next returns the next value, starting at 1. Safe for concurrent use.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the last value handed out.
func (s *Sequence) Current() uint64 {
	return s.n.Load()
}

// TxHash renders a sequence value as a 0x-prefixed 64-hex-char transaction
// hash, the fixed format used across the deterministic tier.
func TxHash(n uint64) string {
	return fmt.Sprintf("0x%064x", n)
}

// ContractAddress renders a sequence value as a 0x-prefixed 40-hex-char
// contract address.
func ContractAddress(n uint64) string {
	return fmt.Sprintf("0x%040x", n)
}
