package uploader

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"notarygw/config"
	"notarygw/notary"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader stores documents in an S3-compatible object store fronting
// the permanent-storage gateway. Objects are keyed by fingerprint, so the
// store stays content-addressed and re-uploads are idempotent.
type MinioUploader struct {
	client *minio.Client
	bucket string
	cfg    *config.StorageConfig
	logger *log.Logger
}

// NewMinioUploader creates the object-store client.
func NewMinioUploader(cfg *config.StorageConfig, logger *log.Logger) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioUploader{
		client: client,
		bucket: cfg.Bucket,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload stores the document bytes under the fingerprint and returns the
// durable reference.
func (u *MinioUploader) Upload(ctx context.Context, data []byte, fingerprint string) (*notary.UploadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("refusing to upload empty file")
	}

	objectName := strings.TrimPrefix(fingerprint, "0x")
	_, err := u.client.PutObject(ctx, u.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	return &notary.UploadResult{
		StorageID:   objectName,
		URL:         u.objectURL(objectName),
		Fingerprint: fingerprint,
		Size:        int64(len(data)),
		Cost:        uploadCost(u.cfg.CostPerMiB, int64(len(data))),
	}, nil
}

// Close is a no-op; the minio client holds no long-lived connections.
func (u *MinioUploader) Close() error {
	u.logger.Println("Closing object-store uploader...")
	return nil
}

// objectURL resolves an object name against the configured gateway base URL,
// falling back to the object store's own public URL layout.
func (u *MinioUploader) objectURL(objectName string) string {
	if u.cfg.GatewayBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(u.cfg.GatewayBaseURL, "/"), objectName)
	}
	protocol := "http"
	if u.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, u.cfg.Endpoint, u.bucket, objectName)
}

var _ notary.Uploader = (*MinioUploader)(nil)
