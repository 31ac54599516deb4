package uploader

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarygw/config"
)

var testLogger = log.New(bytes.NewBuffer(nil), "", 0)

func testStorageConfig() *config.StorageConfig {
	cfg := &config.StorageConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestMockUploadDeterministic(t *testing.T) {
	m := NewMockUploader(testStorageConfig(), testLogger)
	fp := "0x" + strings.Repeat("ab", 32)

	first, err := m.Upload(context.Background(), []byte("document body"), fp)
	require.NoError(t, err)
	second, err := m.Upload(context.Background(), []byte("document body"), fp)
	require.NoError(t, err)

	assert.Equal(t, first.StorageID, second.StorageID, "same fingerprint resolves to same id")
	assert.Equal(t, first.URL, second.URL)
	assert.Len(t, first.StorageID, storageIDLength)
	assert.True(t, strings.HasPrefix(first.URL, "https://arweave.net/"))
	assert.Equal(t, fp, first.Fingerprint)
	assert.Equal(t, int64(13), first.Size)
}

func TestMockUploadRejectsEmptyFile(t *testing.T) {
	m := NewMockUploader(testStorageConfig(), testLogger)
	_, err := m.Upload(context.Background(), nil, "0x"+strings.Repeat("cd", 32))
	assert.Error(t, err)
}

func TestMockUploadFailWith(t *testing.T) {
	m := NewMockUploader(testStorageConfig(), testLogger)
	boom := errors.New("network partition")
	m.FailWith(boom)

	_, err := m.Upload(context.Background(), []byte("doc"), "0x"+strings.Repeat("ef", 32))
	assert.ErrorIs(t, err, boom)
}

func TestUploadCostFloorsAtOneMiB(t *testing.T) {
	small := uploadCost(0.001, 10)
	exact := uploadCost(0.001, 1<<20)
	double := uploadCost(0.001, 2<<20)

	assert.InDelta(t, 0.001, small, 1e-12, "sub-MiB uploads bill one full MiB")
	assert.InDelta(t, 0.001, exact, 1e-12)
	assert.InDelta(t, 0.002, double, 1e-12)
}

func TestMockStorageIDLength(t *testing.T) {
	long := mockStorageID("0x" + strings.Repeat("ab", 32))
	assert.Len(t, long, storageIDLength)

	short := mockStorageID("0xabcd")
	assert.Len(t, short, storageIDLength)
	assert.True(t, strings.HasPrefix(short, "abcd"))
}

func TestFactorySelectsProvider(t *testing.T) {
	cfg := testStorageConfig()
	cfg.Provider = "mock"
	u, err := New(cfg, testLogger)
	require.NoError(t, err)
	_, ok := u.(*MockUploader)
	assert.True(t, ok)

	cfg.Provider = "ceph"
	_, err = New(cfg, testLogger)
	assert.Error(t, err, "unknown provider must be rejected")
}
