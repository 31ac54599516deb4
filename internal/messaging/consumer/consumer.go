package consumer

import (
	"context"

	"notarygw/internal/models"
)

// Consumer defines the interface for notarization request intake.
type Consumer interface {
	// Consume blocks until a request is received or the context is cancelled.
	// It returns the request, an acknowledgement callback, and any error that occurred.
	// The ack callback: ack(true) for successful processing (message will be deleted);
	// ack(false) for temporary failure (message will be redelivered).
	Consume(ctx context.Context) (req *models.NotarizationRequest, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
