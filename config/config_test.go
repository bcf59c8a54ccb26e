package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test_config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
log_level: -4
encryption_key: "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
server:
  port: "9090"
storage:
  type: gcs
  bucket: tracks
  object_prefix: audio
payment:
  network: base
  asset: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
`)

	cfg, err := Load(configPath)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, -4, cfg.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gcs", cfg.Storage.Type)
	assert.Equal(t, "tracks", cfg.Storage.Bucket)
	assert.Equal(t, "audio", cfg.Storage.ObjectPrefix)
	assert.Equal(t, "base", cfg.Payment.Network)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", cfg.Payment.Asset)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	configPath := writeConfig(t, "log_level: 0\n")

	cfg, err := Load(configPath)

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "data/blobs", cfg.Storage.OutputDir)
	assert.Equal(t, "sqlite", cfg.Catalog.Driver)
	assert.Equal(t, DefaultFacilitatorURL, cfg.Payment.FacilitatorURL)
	assert.Equal(t, DefaultNetwork, cfg.Payment.Network)
	assert.Equal(t, DefaultAsset, cfg.Payment.Asset)
	assert.Equal(t, "USDC", cfg.Payment.AssetName)
	assert.Equal(t, "2", cfg.Payment.AssetVersion)
	assert.Equal(t, int64(1), cfg.Payment.DefaultPricePerMinuteCents)
	assert.Equal(t, DefaultOnrampTokenURL, cfg.Onramp.TokenURL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ENC_KEY", "ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100")
	t.Setenv("PAYMENT_ASSET_NAME", "USD Coin")
	t.Setenv("PAYMENT_ASSET_VERSION", "1")
	t.Setenv("KEY_NAME", "organizations/x/apiKeys/y")
	t.Setenv("CDP_SECRET_KEY", "secret")

	configPath := writeConfig(t, `
encryption_key: "file-value"
payment:
  asset_name: USDC
`)

	cfg, err := Load(configPath)

	require.NoError(t, err)
	assert.Equal(t, "ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100", cfg.EncryptionKey)
	assert.Equal(t, "USD Coin", cfg.Payment.AssetName)
	assert.Equal(t, "1", cfg.Payment.AssetVersion)
	assert.Equal(t, "organizations/x/apiKeys/y", cfg.Onramp.APIKeyID)
	assert.Equal(t, "secret", cfg.Onramp.APIKeySecret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		storage StorageConfig
		wantErr error
	}{
		{"local", StorageConfig{Type: "local"}, nil},
		{"memory", StorageConfig{Type: "memory"}, nil},
		{"gcs without bucket", StorageConfig{Type: "gcs"}, ErrMissingBucket},
		{"s3 with bucket", StorageConfig{Type: "s3", Bucket: "b"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Storage: tt.storage, Payment: PaymentConfig{FacilitatorURL: DefaultFacilitatorURL}}
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	cfg := &Config{Storage: StorageConfig{Type: "ftp"}, Payment: PaymentConfig{FacilitatorURL: "x"}}
	var cfgErr *ConfigError
	assert.True(t, errors.As(cfg.Validate(), &cfgErr))
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("non_existent_file.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
log_level: -4
storage:
  type: local
invalid_yaml: [this is not valid yaml
`)

	cfg, err := Load(configPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
}
