package uploader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"notarygw/config"
	"notarygw/notary"
)

// storageIDLength matches the fixed identifier length of the permanent
// storage network.
const storageIDLength = 43

// MockUploader is the deterministic storage tier: the storage id is derived
// from the fingerprint, so repeated uploads of the same document resolve to
// the same URL, the way a content-addressed network behaves.
type MockUploader struct {
	baseURL    string
	costPerMiB float64
	logger     *log.Logger

	failErr error
}

// NewMockUploader creates a MockUploader from the storage configuration.
func NewMockUploader(cfg *config.StorageConfig, logger *log.Logger) *MockUploader {
	base := strings.TrimRight(cfg.GatewayBaseURL, "/")
	return &MockUploader{baseURL: base, costPerMiB: cfg.CostPerMiB, logger: logger}
}

// FailWith makes every subsequent Upload fail with err. Test hook.
func (m *MockUploader) FailWith(err error) { m.failErr = err }

// Upload stores nothing and returns a deterministic result.
func (m *MockUploader) Upload(ctx context.Context, data []byte, fingerprint string) (*notary.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failErr != nil {
		return nil, m.failErr
	}
	if len(data) == 0 {
		return nil, errors.New("refusing to upload empty file")
	}

	id := mockStorageID(fingerprint)
	return &notary.UploadResult{
		StorageID:   id,
		URL:         fmt.Sprintf("%s/%s", m.baseURL, id),
		Fingerprint: fingerprint,
		Size:        int64(len(data)),
		Cost:        uploadCost(m.costPerMiB, int64(len(data))),
	}, nil
}

// Close is a no-op for the mock tier.
func (m *MockUploader) Close() error {
	if m.logger != nil {
		m.logger.Println("[MockUploader] Closing...")
	}
	return nil
}

// mockStorageID derives the fixed-length storage id from the fingerprint.
func mockStorageID(fingerprint string) string {
	id := strings.TrimPrefix(fingerprint, "0x")
	if len(id) > storageIDLength {
		return id[:storageIDLength]
	}
	return id + strings.Repeat("0", storageIDLength-len(id))
}

// uploadCost charges per MiB with a floor of one whole MiB, so cost is
// always positive for non-empty uploads.
func uploadCost(perMiB float64, size int64) float64 {
	mib := float64(size) / (1 << 20)
	if mib < 1 {
		mib = 1
	}
	return perMiB * mib
}

var _ notary.Uploader = (*MockUploader)(nil)
