package audit

import (
	"context"
	"time"
)

// Event is one administrative or notarization action. Because all transaction
// identifiers are drawn from one monotonic space, a consumer merging admin
// and orchestrator streams can totally order them by TxHash.
type Event struct {
	TxHash  string    `json:"tx_hash"`
	Actor   string    `json:"actor"`
	Action  string    `json:"action"`
	Subject string    `json:"subject"`
	At      time.Time `json:"at"`
}

// Publisher publishes audit events. Publishing is best-effort: callers log
// failures but never fail the underlying operation on a publish error.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, e Event) error { return nil }
func (NopPublisher) Close() error                               { return nil }

var _ Publisher = NopPublisher{}
