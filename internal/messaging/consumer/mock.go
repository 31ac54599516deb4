package consumer

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"notarygw/internal/models"

	"github.com/google/uuid"
)

// MockConsumer serves a fixed set of requests from memory, for testing and
// local development without a broker.
type MockConsumer struct {
	logger   *log.Logger
	requests chan *models.NotarizationRequest
}

// PredefinedRequests returns the fixed workload the mock consumer serves:
// two hash registrations (one a duplicate fingerprint, which is a legitimate
// re-submission at this layer) and one NFT mint.
func PredefinedRequests() []*models.NotarizationRequest {
	now := time.Now().Unix()
	dupFingerprint := "0x" + strings.Repeat("11", 32)

	return []*models.NotarizationRequest{
		{
			RequestID:   uuid.NewString(),
			Kind:        "hash",
			Fingerprint: dupFingerprint,
			ReceivedAt:  strconv.FormatInt(now-60, 10),
		},
		{
			RequestID:   uuid.NewString(),
			Kind:        "nft",
			Fingerprint: "0x" + strings.Repeat("22", 32),
			StorageURL:  "https://arweave.net/" + strings.Repeat("2", 43),
			Metadata:    map[string]any{"name": "Mock document"},
			ReceivedAt:  strconv.FormatInt(now-30, 10),
		},
		{
			RequestID:   uuid.NewString(),
			Kind:        "hash",
			Fingerprint: dupFingerprint,
			ReceivedAt:  strconv.FormatInt(now, 10),
		},
	}
}

// NewMockConsumer creates a MockConsumer preloaded with the given requests.
// A nil slice loads the predefined workload.
func NewMockConsumer(logger *log.Logger, requests []*models.NotarizationRequest) *MockConsumer {
	if requests == nil {
		requests = PredefinedRequests()
	}
	mc := &MockConsumer{
		logger:   logger,
		requests: make(chan *models.NotarizationRequest, len(requests)+5),
	}
	for _, req := range requests {
		mc.requests <- req
		logger.Printf("[MockConsumer] Added request: request_id=%s kind=%s", req.RequestID, req.Kind)
	}
	return mc
}

// Consume reads requests from the in-memory channel.
func (m *MockConsumer) Consume(ctx context.Context) (req *models.NotarizationRequest, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case req := <-m.requests:
		if req == nil {
			return nil, nil, errors.New("request channel closed")
		}
		m.logger.Printf("[MockConsumer] Consumed request: request_id=%s", req.RequestID)

		ackCallback := func(success bool) {
			if success {
				m.logger.Printf("[MockConsumer] ACK received for request: request_id=%s", req.RequestID)
				return
			}
			m.logger.Printf("[MockConsumer] NACK received for request: request_id=%s. Re-queueing (mock)", req.RequestID)
			select {
			case m.requests <- req:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue request (channel full?): request_id=%s", req.RequestID)
			}
		}
		return req, ackCallback, nil
	}
}

// Close closes the request channel.
func (m *MockConsumer) Close() error {
	m.logger.Println("[MockConsumer] Closing...")
	close(m.requests)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
