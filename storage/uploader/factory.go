package uploader

import (
	"fmt"
	"log"

	"notarygw/config"
	"notarygw/notary"
)

// New creates a storage uploader based on the configured provider.
func New(cfg *config.StorageConfig, logger *log.Logger) (notary.Uploader, error) {
	switch cfg.Provider {
	case "minio":
		return NewMinioUploader(cfg, logger)
	case "mock", "":
		return NewMockUploader(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
