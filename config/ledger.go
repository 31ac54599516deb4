package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// LedgerConfig stores common ledger configuration across all ledger types
type LedgerConfig struct {
	// --- Ledger Type Selection ---
	LedgerType string `yaml:"ledger_type"` // "ethereum", "mock", etc.

	// --- Common Behavior Configuration ---
	RetryLimit     int `yaml:"retry_limit"`     // bounded retries for read operations
	RetryInterval  int `yaml:"retry_interval"`  // base retry delay in milliseconds
	TimeoutSeconds int `yaml:"timeout_seconds"` // per-call ledger timeout

	// --- Contract Addresses ---
	ContractAddress    string `yaml:"contract_address"`     // hash registry
	NFTContractAddress string `yaml:"nft_contract_address"` // NFT contract

	// --- Gas Policy ---
	GasLimit     uint64  `yaml:"gas_limit"`
	GasPriceGwei float64 `yaml:"gas_price_gwei"`

	// --- Chain-specific Configuration ---
	// This will be loaded separately based on ledger type
	ChainSpecific any `yaml:"-"`
}

// SetDefaults sets reasonable default values for ledger configuration
func (c *LedgerConfig) SetDefaults() {
	if c.RetryLimit <= 0 {
		c.RetryLimit = 3
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 2000
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.GasLimit == 0 {
		c.GasLimit = 300000
	}
	if c.GasPriceGwei == 0 {
		c.GasPriceGwei = 20.0
	}
}

// LoadLedgerConfig loads ledger configuration from the specified YAML file path
func LoadLedgerConfig(path string) (*LedgerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config file: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", absPath, err)
	}

	var cfg LedgerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}
