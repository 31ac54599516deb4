package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaConsumerConfig defines configuration for the Kafka request intake consumer
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`             // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string   `yaml:"topic"`               // Topic to consume from
	GroupID           string   `yaml:"group_id"`            // Consumer group ID
	Count             int      `yaml:"count"`               // Number of consumers to create
	SessionTimeout    string   `yaml:"session_timeout"`     // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"`  // Kafka heartbeat interval
	MaxProcessingTime string   `yaml:"max_processing_time"` // Maximum time for processing a message
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`   // earliest/latest
	EnableAutoCommit  bool     `yaml:"enable_auto_commit"`  // Enable auto offset commit
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
	}
	if c.MaxProcessingTime == "" {
		c.MaxProcessingTime = "5m"
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
}

// KafkaProducerConfig defines configuration for the Kafka audit event producer
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// WorkerConfig defines configuration for notarization worker processing
type WorkerConfig struct {
	Concurrency        int    `yaml:"concurrency"`          // Number of concurrent workers per consumer
	ConsumerRetryDelay string `yaml:"consumer_retry_delay"` // Delay when consumer encounters errors
	LedgerTimeout      string `yaml:"ledger_timeout"`       // Timeout for ledger operations
}

// SetDefaults sets reasonable default values for worker configuration
func (c *WorkerConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.ConsumerRetryDelay == "" {
		c.ConsumerRetryDelay = "5s"
	}
	if c.LedgerTimeout == "" {
		c.LedgerTimeout = "15s"
	}
}

// WalletConfig references the operating (server) wallet key. The key itself
// never enters this configuration; only a reference to where it lives.
type WalletConfig struct {
	Address string `yaml:"address"`  // expected wallet address (mock tier uses this directly)
	KeyFile string `yaml:"key_file"` // path to a hex-encoded private key file
	KeyEnv  string `yaml:"key_env"`  // name of an environment variable holding the key
}

// Validate validates the wallet configuration
func (c *WalletConfig) Validate() error {
	if c.KeyFile != "" && c.KeyEnv != "" {
		return fmt.Errorf("wallet key_file and key_env are mutually exclusive")
	}
	return nil
}

// GatewayConfig defines all configuration for the notarization gateway daemon
type GatewayConfig struct {
	// Request intake
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`

	// Audit event stream
	KafkaAudit KafkaProducerConfig `yaml:"kafka_audit"`

	// Worker Configuration
	Worker WorkerConfig `yaml:"worker"`

	// Business Rules Configuration
	MaxTaskRetries int `yaml:"max_task_retries"` // Maximum retry attempts per request

	// Operating wallet
	Wallet WalletConfig `yaml:"wallet"`

	// Administrative owner identity
	OwnerAddress string `yaml:"owner_address"`

	// Storage adapter configuration
	Storage StorageConfig `yaml:"storage"`

	// Ledger Client Configuration
	LedgerClientConfigPath string `yaml:"ledger_client_config_path"`
}

// LoadGatewayConfig loads configuration from the specified YAML file path
func LoadGatewayConfig(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	cfg.KafkaConsumer.SetDefaults()
	cfg.Worker.SetDefaults()
	cfg.Storage.SetDefaults()

	if cfg.MaxTaskRetries <= 0 {
		cfg.MaxTaskRetries = 3
	}

	if err := cfg.Wallet.Validate(); err != nil {
		return nil, fmt.Errorf("wallet configuration error: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("storage configuration error: %w", err)
	}

	return &cfg, nil
}
