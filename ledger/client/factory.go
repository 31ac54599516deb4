package ledger

import (
	"fmt"
	"log"
	"path/filepath"

	"notarygw/config"
	"notarygw/ledger/client/ethereum"
)

// LedgerType represents the type of ledger client
type LedgerType string

const (
	Ethereum LedgerType = "ethereum"
	Mock     LedgerType = "mock"
	// Future ledger types can be added here:
	// Polygon LedgerType = "polygon"
)

// LoadChainSpecificConfig loads chain-specific configuration based on ledger type
func LoadChainSpecificConfig(ledgerType string, configDir string) (any, error) {
	switch LedgerType(ledgerType) {
	case Ethereum:
		return ethereum.LoadConfig(filepath.Join(configDir, "clients", "ethereum.yml"))
	case Mock, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerType)
	}
}

// NewClient creates a ledger client based on the configuration
func NewClient(cfg *config.LedgerConfig, logger *log.Logger) (Client, error) {
	switch LedgerType(cfg.LedgerType) {
	case Ethereum:
		return ethereum.NewClient(cfg, logger)
	case Mock, "":
		// Default to the deterministic mock tier if not specified
		return NewMockClient(logger), nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.LedgerType)
	}
}

// NewClientFromFile creates a ledger client from configuration files
func NewClientFromFile(configPath string, logger *log.Logger) (Client, error) {
	cfg, err := config.LoadLedgerConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load common config from file '%s': %w", configPath, err)
	}

	configDir := filepath.Dir(configPath)
	chainSpecificCfg, err := LoadChainSpecificConfig(cfg.LedgerType, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain-specific config: %w", err)
	}

	cfg.ChainSpecific = chainSpecificCfg
	return NewClient(cfg, logger)
}
