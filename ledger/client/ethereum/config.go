package ethereum

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config stores Ethereum-specific configuration.
type Config struct {
	// --- RPC Connection Required ---
	RPCURL  string `yaml:"rpc_url"`
	ChainID int64  `yaml:"chain_id"`

	// --- Behaviour ---
	// VerifyChainID makes the client check the node's chain id at startup.
	VerifyChainID bool `yaml:"verify_chain_id"`
}

// LoadConfig loads Ethereum configuration from the specified YAML file path.
func LoadConfig(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of Ethereum config file: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read Ethereum config file '%s': %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse Ethereum YAML config file: %w", err)
	}

	if cfg.RPCURL == "" {
		cfg.RPCURL = "http://localhost:8545"
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 1337
	}
	return &cfg, nil
}
