package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGatewayConfigDefaults(t *testing.T) {
	path := writeConfig(t, "gateway.yml", `
kafka_consumer:
  brokers: ["mock://local"]
  topic: notarization-requests
`)
	cfg, err := LoadGatewayConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.KafkaConsumer.Count)
	assert.Equal(t, "earliest", cfg.KafkaConsumer.AutoOffsetReset)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "5s", cfg.Worker.ConsumerRetryDelay)
	assert.Equal(t, "15s", cfg.Worker.LedgerTimeout)
	assert.Equal(t, 3, cfg.MaxTaskRetries)
	assert.Equal(t, "mock", cfg.Storage.Provider)
	assert.Equal(t, "https://arweave.net", cfg.Storage.GatewayBaseURL)
}

func TestLoadGatewayConfigWalletKeySourcesExclusive(t *testing.T) {
	path := writeConfig(t, "gateway.yml", `
wallet:
  key_file: /etc/notarygw/operator.key
  key_env: NOTARYGW_OPERATOR_KEY
`)
	_, err := LoadGatewayConfig(path)
	assert.Error(t, err, "two key sources is a configuration mistake, not a fallback chain")
}

func TestLoadGatewayConfigMissingFile(t *testing.T) {
	_, err := LoadGatewayConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadLedgerConfigDefaults(t *testing.T) {
	path := writeConfig(t, "client_config.yml", `
ledger_type: mock
contract_address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`)
	cfg, err := LoadLedgerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LedgerType)
	assert.Equal(t, 3, cfg.RetryLimit)
	assert.Equal(t, 2000, cfg.RetryInterval)
	assert.Equal(t, 15, cfg.TimeoutSeconds)
	assert.Equal(t, 20.0, cfg.GasPriceGwei)
}

func TestStorageConfigValidate(t *testing.T) {
	cfg := &StorageConfig{Provider: "minio"}
	assert.Error(t, cfg.Validate(), "minio provider requires connection settings")

	cfg.Endpoint = "minio.internal:9000"
	cfg.AccessKey = "user"
	cfg.SecretKey = "pass"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gateway.defaults.yml"), []byte(`
max_task_retries: 5
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client_config.yml"), []byte(`
ledger_type: mock
`), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Gateway)
	require.NotNil(t, cfg.Ledger)
	assert.Equal(t, 5, cfg.Gateway.MaxTaskRetries)
	assert.Equal(t, "mock", cfg.Ledger.LedgerType)
}
