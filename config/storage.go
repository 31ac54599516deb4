package config

import "fmt"

// StorageConfig defines configuration for the permanent-storage upload adapter
type StorageConfig struct {
	Provider string `yaml:"provider"` // "minio", "mock"

	// --- Object store connection (minio provider) ---
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`

	// --- Resolution ---
	GatewayBaseURL string `yaml:"gateway_base_url"` // base URL stored objects resolve under

	// --- Cost accounting ---
	CostPerMiB float64 `yaml:"cost_per_mib"` // upload cost per MiB in the network's native unit
}

// SetDefaults sets sensible default values for the storage configuration
func (c *StorageConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "mock"
	}
	if c.GatewayBaseURL == "" {
		c.GatewayBaseURL = "https://arweave.net"
	}
	if c.CostPerMiB == 0 {
		c.CostPerMiB = 0.001
	}
	if c.Bucket == "" {
		c.Bucket = "notarized-documents"
	}
}

// Validate validates the storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Provider {
	case "mock":
		return nil
	case "minio":
		if c.Endpoint == "" {
			return fmt.Errorf("storage endpoint is required for the minio provider")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("storage access_key and secret_key are required for the minio provider")
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage provider: %s", c.Provider)
	}
}
