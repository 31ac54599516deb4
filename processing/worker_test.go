package worker

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarygw/config"
	"notarygw/internal/messaging/consumer"
	"notarygw/internal/models"
	"notarygw/internal/sequence"
	ledger "notarygw/ledger/client"
	"notarygw/notary"
	"notarygw/storage/uploader"
	"notarygw/wallet"
)

var testLogger = log.New(bytes.NewBuffer(nil), "", 0)

func testFingerprint(b string) string {
	return "0x" + strings.Repeat(b, 32)
}

func newTestWorker(t *testing.T, maxRetries int, opts ...ledger.MockOption) *Worker {
	t.Helper()

	signer, err := wallet.NewStaticSigner("")
	require.NoError(t, err)
	storageCfg := &config.StorageConfig{}
	storageCfg.SetDefaults()

	orch, err := notary.New(notary.Params{
		Ledger:          ledger.NewMockClient(testLogger, opts...),
		Uploader:        uploader.NewMockUploader(storageCfg, testLogger),
		Signer:          signer,
		Sequence:        sequence.New(),
		Logger:          testLogger,
		RegistryAddress: "0x" + strings.Repeat("aa", 20),
		NFTAddress:      "0x" + strings.Repeat("bb", 20),
		RetryLimit:      1,
		RetryInterval:   time.Millisecond,
	})
	require.NoError(t, err)

	cfg := config.WorkerConfig{Concurrency: 1, ConsumerRetryDelay: "1ms", LedgerTimeout: "2s"}
	return New(cfg, maxRetries, testLogger, nil, orch)
}

// ackRecorder captures the acknowledgement decisions made for a request.
type ackRecorder struct {
	calls []bool
}

func (a *ackRecorder) ack(success bool) { a.calls = append(a.calls, success) }

func TestHandleRequestHash(t *testing.T) {
	w := newTestWorker(t, 3)

	rec, err := w.handleRequest(context.Background(), &models.NotarizationRequest{
		RequestID:   "req-1",
		Kind:        "hash",
		Fingerprint: testFingerprint("ab"),
	})
	require.NoError(t, err)
	assert.Equal(t, notary.KindHash, rec.Kind)
}

func TestHandleRequestNFTWithStorageURL(t *testing.T) {
	w := newTestWorker(t, 3)

	rec, err := w.handleRequest(context.Background(), &models.NotarizationRequest{
		RequestID:   "req-2",
		Kind:        "nft",
		Fingerprint: testFingerprint("cd"),
		StorageURL:  "https://arweave.net/" + strings.Repeat("7", 43),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.TokenID)
}

func TestHandleRequestMalformed(t *testing.T) {
	w := newTestWorker(t, 3)

	_, err := w.handleRequest(context.Background(), &models.NotarizationRequest{
		RequestID: "req-3",
		Kind:      "escrow",
	})
	assert.ErrorIs(t, err, errMalformedRequest)

	_, err = w.handleRequest(context.Background(), &models.NotarizationRequest{
		RequestID:   "req-4",
		Kind:        "nft",
		Fingerprint: testFingerprint("ef"),
	})
	assert.ErrorIs(t, err, errMalformedRequest, "nft without storage_url or file_path cannot be processed")
}

func TestPermanentClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"invalid fingerprint", notary.ErrInvalidFingerprint, true},
		{"invalid storage url", notary.ErrInvalidStorageURL, true},
		{"not found", notary.ErrNotFound, true},
		{"malformed request", errMalformedRequest, true},
		{"unauthorized", notary.ErrUnauthorized, false},
		{"submission failure", notary.ErrSubmissionFailed, false},
		{"upload failure", notary.ErrUploadFailed, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.permanent, permanent(tc.err))
		})
	}
}

func TestProcessAndAckSuccess(t *testing.T) {
	w := newTestWorker(t, 3)
	rec := &ackRecorder{}

	w.processAndAck(context.Background(), 1, &models.NotarizationRequest{
		RequestID:   "req-5",
		Kind:        "hash",
		Fingerprint: testFingerprint("01"),
	}, rec.ack)

	assert.Equal(t, []bool{true}, rec.calls)
}

func TestProcessAndAckDropsInvalidInput(t *testing.T) {
	w := newTestWorker(t, 3)
	rec := &ackRecorder{}

	req := &models.NotarizationRequest{RequestID: "req-6", Kind: "hash", Fingerprint: "garbage"}
	w.processAndAck(context.Background(), 1, req, rec.ack)

	assert.Equal(t, []bool{true}, rec.calls, "permanent failures must not be redelivered")
	assert.Empty(t, w.attempts, "dropped requests leave no attempt state behind")
}

func TestProcessAndAckRetriesTransientThenDrops(t *testing.T) {
	w := newTestWorker(t, 2, ledger.WithSubmitError(errors.New("broadcast refused")))
	rec := &ackRecorder{}
	req := &models.NotarizationRequest{RequestID: "req-7", Kind: "hash", Fingerprint: testFingerprint("02")}

	w.processAndAck(context.Background(), 1, req, rec.ack)
	require.Equal(t, []bool{false}, rec.calls, "first transient failure is redelivered")

	w.processAndAck(context.Background(), 1, req, rec.ack)
	assert.Equal(t, []bool{false, true}, rec.calls, "retry budget exhausted, request dropped")
	assert.Empty(t, w.attempts)
}

func TestRunDrainsMockConsumer(t *testing.T) {
	w := newTestWorker(t, 3)
	requests := []*models.NotarizationRequest{
		{RequestID: "run-1", Kind: "hash", Fingerprint: testFingerprint("03")},
		{RequestID: "run-2", Kind: "hash", Fingerprint: testFingerprint("04")},
	}
	w.consumer = consumer.NewMockConsumer(testLogger, requests)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	// Both fingerprints were submitted: their status polls resolve confirmed.
	for _, hash := range []string{"0x" + strings.Repeat("0", 63) + "1", "0x" + strings.Repeat("0", 63) + "2"} {
		state, err := w.orchestrator.TransactionStatus(context.Background(), hash)
		require.NoError(t, err)
		assert.Equal(t, "confirmed", string(state))
	}
}
