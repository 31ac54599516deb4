package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"notarygw/config"
	"notarygw/internal/messaging/consumer"
	"notarygw/internal/models"
	"notarygw/notary"
)

// Worker drives the notarization orchestrator from the intake queue.
type Worker struct {
	workerConfig       config.WorkerConfig
	consumerRetryDelay time.Duration // Parsed from workerConfig.ConsumerRetryDelay
	ledgerTimeout      time.Duration // Parsed from workerConfig.LedgerTimeout

	maxTaskRetries int // Business rule for maximum request retries
	logger         *log.Logger
	consumer       consumer.Consumer
	orchestrator   *notary.Orchestrator

	mu       sync.Mutex
	attempts map[string]int // request_id -> delivery failures seen by this worker
}

// errMalformedRequest marks requests that can never be processed.
var errMalformedRequest = errors.New("malformed request")

// New creates a new Worker instance
func New(cfg config.WorkerConfig, maxTaskRetries int, logger *log.Logger, c consumer.Consumer, orch *notary.Orchestrator) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	// Parse time duration strings
	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	ledgerTimeout, err := time.ParseDuration(cfg.LedgerTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid ledger_timeout '%s', using default 15s", cfg.LedgerTimeout)
		ledgerTimeout = 15 * time.Second
	}

	return &Worker{
		workerConfig:       cfg,
		consumerRetryDelay: consumerRetryDelay,
		ledgerTimeout:      ledgerTimeout,
		maxTaskRetries:     maxTaskRetries,
		logger:             logger,
		consumer:           c,
		orchestrator:       orch,
		attempts:           make(map[string]int),
	}
}

// Run starts the worker pool and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting worker pool with concurrency: %d", w.workerConfig.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.workerConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.logger.Printf("Worker %d started", workerID)
			w.consumeLoop(ctx, workerID)
			w.logger.Printf("Worker %d stopped", workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Worker pool stopped.")
}

// consumeLoop is the main loop for a worker goroutine
func (w *Worker) consumeLoop(ctx context.Context, workerID int) {
	for {
		req, ack, err := w.consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Printf("Worker %d: Context cancelled, stopping.", workerID)
				return
			}
			// Only log real consumer errors
			w.logger.Printf("Worker %d: Consumer error: %v", workerID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.consumerRetryDelay):
			}
			continue
		}
		if req == nil {
			continue
		}

		w.processAndAck(ctx, workerID, req, ack)
	}
}

// processAndAck handles processing and queue acknowledgement
func (w *Worker) processAndAck(ctx context.Context, workerID int, req *models.NotarizationRequest, ack func(success bool)) {
	start := time.Now()
	rec, err := w.handleRequest(ctx, req)
	elapsed := time.Since(start)

	if err == nil {
		w.logger.Printf("Worker %d: Request %s notarized: tx=%s state=%s block=%d gas=%d token=%d (%v)",
			workerID, req.RequestID, rec.TxHash, rec.State, rec.BlockNumber, rec.GasUsed, rec.TokenID, elapsed)
		w.clearAttempts(req.RequestID)
		ack(true)
		return
	}

	if permanent(err) {
		w.logger.Printf("Worker %d: Request %s rejected permanently: %v", workerID, req.RequestID, err)
		w.clearAttempts(req.RequestID)
		ack(true) // drop: redelivery cannot succeed
		return
	}

	// Transient failure. A mint that failed after a successful upload keeps
	// its durable storage reference, so the retry can skip the upload.
	var mintErr *notary.MintAfterUploadError
	if errors.As(err, &mintErr) {
		w.logger.Printf("Worker %d: Request %s upload survived failed mint: storage_id=%s url=%s",
			workerID, req.RequestID, mintErr.Upload.StorageID, mintErr.Upload.URL)
	}

	n := w.bumpAttempts(req.RequestID)
	if n >= w.maxTaskRetries {
		w.logger.Printf("CRITICAL: Worker %d: Request %s dropped after %d attempts: %v", workerID, req.RequestID, n, err)
		w.clearAttempts(req.RequestID)
		ack(true)
		return
	}
	w.logger.Printf("Worker %d: Request %s failed (attempt %d/%d), redelivering: %v", workerID, req.RequestID, n, w.maxTaskRetries, err)
	ack(false)
}

func (w *Worker) handleRequest(ctx context.Context, req *models.NotarizationRequest) (*notary.Receipt, error) {
	opCtx, cancel := context.WithTimeout(ctx, w.ledgerTimeout)
	defer cancel()

	switch req.Kind {
	case "hash":
		return w.orchestrator.RegisterHash(opCtx, req.Fingerprint, req.Metadata)

	case "nft":
		if req.StorageURL != "" {
			return w.orchestrator.MintNFT(opCtx, req.Fingerprint, req.StorageURL, req.Metadata)
		}
		if req.FilePath == "" {
			return nil, fmt.Errorf("nft request %s has neither storage_url nor file_path: %w", req.RequestID, errMalformedRequest)
		}
		f, err := os.Open(req.FilePath)
		if err != nil {
			return nil, &notary.UploadError{Fingerprint: req.Fingerprint, Err: err}
		}
		defer f.Close()
		return w.orchestrator.MintNFTFromFile(opCtx, f, req.Fingerprint, req.Metadata)

	default:
		return nil, fmt.Errorf("unknown notarization kind %q in request %s: %w", req.Kind, req.RequestID, errMalformedRequest)
	}
}

// permanent reports whether redelivering the request could ever succeed.
// Validation and authorization failures cannot heal on retry; adapter and
// timeout failures can.
func permanent(err error) bool {
	if errors.Is(err, notary.ErrInvalidFingerprint) ||
		errors.Is(err, notary.ErrInvalidStorageURL) ||
		errors.Is(err, notary.ErrNotFound) ||
		errors.Is(err, errMalformedRequest) {
		return true
	}
	// Unauthorized covers pause: an operator may unpause, so redeliver.
	return false
}

func (w *Worker) bumpAttempts(requestID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[requestID]++
	return w.attempts[requestID]
}

func (w *Worker) clearAttempts(requestID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, requestID)
}
