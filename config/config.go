package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	// EncryptionKey is the hex encoded AES-256 key shared by all stored
	// content. Rotating it makes every previously stored payload unreadable.
	EncryptionKey string `yaml:"encryption_key"`

	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Payment PaymentConfig `yaml:"payment"`
	Onramp  OnrampConfig  `yaml:"onramp"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

type StorageConfig struct {
	// Type of storage: "local", "gcs", "s3" or "memory"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// Bucket storage options (gcs, s3)
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type CatalogConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// PaymentConfig describes the asset a listener pays with. AssetName and
// AssetVersion must equal the token's on-chain EIP-712 signing domain for the
// selected network, otherwise the facilitator rejects every signature.
type PaymentConfig struct {
	FacilitatorURL             string        `yaml:"facilitator_url"`
	FacilitatorTimeout         time.Duration `yaml:"facilitator_timeout"`
	Network                    string        `yaml:"network"`
	Asset                      string        `yaml:"asset"`
	AssetName                  string        `yaml:"asset_name"`
	AssetVersion               string        `yaml:"asset_version"`
	DefaultPricePerMinuteCents int64         `yaml:"default_price_per_minute_cents"`
}

type OnrampConfig struct {
	APIKeyID         string `yaml:"api_key_id"`
	APIKeySecret     string `yaml:"api_key_secret"`
	TokenURL         string `yaml:"token_url"`
	ClientIPOverride string `yaml:"client_ip_override"`
}

// Defaults for the base-sepolia USDC deployment.
const (
	DefaultFacilitatorURL = "https://x402.org/facilitator"
	DefaultNetwork        = "base-sepolia"
	DefaultAsset          = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	DefaultAssetName      = "USDC"
	DefaultAssetVersion   = "2"
	DefaultOnrampTokenURL = "https://api.developer.coinbase.com/onramp/v1/token"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyEnv()
	config.applyDefaults()

	return config, nil
}

// applyEnv overrides file values with secrets and deployment settings taken
// from the process environment.
func (c *Config) applyEnv() {
	if key := os.Getenv("ENC_KEY"); key != "" {
		c.EncryptionKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if parsed, err := strconv.Atoi(level); err == nil {
			c.LogLevel = parsed
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if dsn := os.Getenv("CATALOG_DSN"); dsn != "" {
		c.Catalog.DSN = dsn
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" && c.Storage.CredentialsFile == "" {
		c.Storage.CredentialsFile = creds
	}
	if url := os.Getenv("FACILITATOR_URL"); url != "" {
		c.Payment.FacilitatorURL = url
	}
	if network := os.Getenv("PAYMENT_NETWORK"); network != "" {
		c.Payment.Network = network
	}
	if asset := os.Getenv("PAYMENT_ASSET"); asset != "" {
		c.Payment.Asset = asset
	}
	if name := os.Getenv("PAYMENT_ASSET_NAME"); name != "" {
		c.Payment.AssetName = name
	}
	if version := os.Getenv("PAYMENT_ASSET_VERSION"); version != "" {
		c.Payment.AssetVersion = version
	}

	if id := firstEnv("CDP_SECRET_KEY_ID", "KEY_NAME"); id != "" {
		c.Onramp.APIKeyID = id
	}
	if secret := firstEnv("CDP_SECRET_KEY", "KEY_SECRET"); secret != "" {
		c.Onramp.APIKeySecret = secret
	}
	if ip := os.Getenv("CDP_CLIENT_IP_OVERRIDE"); ip != "" {
		c.Onramp.ClientIPOverride = ip
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 512 << 20
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "data/blobs"
	}

	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "sqlite"
	}
	if c.Catalog.DSN == "" {
		c.Catalog.DSN = "data/app.db"
	}

	if c.Payment.FacilitatorURL == "" {
		c.Payment.FacilitatorURL = DefaultFacilitatorURL
	}
	if c.Payment.FacilitatorTimeout == 0 {
		c.Payment.FacilitatorTimeout = 30 * time.Second
	}
	if c.Payment.Network == "" {
		c.Payment.Network = DefaultNetwork
	}
	if c.Payment.Asset == "" {
		c.Payment.Asset = DefaultAsset
	}
	if c.Payment.AssetName == "" {
		c.Payment.AssetName = DefaultAssetName
	}
	if c.Payment.AssetVersion == "" {
		c.Payment.AssetVersion = DefaultAssetVersion
	}
	if c.Payment.DefaultPricePerMinuteCents <= 0 {
		c.Payment.DefaultPricePerMinuteCents = 1
	}

	if c.Onramp.TokenURL == "" {
		c.Onramp.TokenURL = DefaultOnrampTokenURL
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Payment.FacilitatorURL == "" {
		return ErrMissingFacilitatorURL
	}
	switch c.Storage.Type {
	case "local", "memory":
	case "gcs", "s3":
		if c.Storage.Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return &ConfigError{"unknown storage type " + strconv.Quote(c.Storage.Type)}
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Errors
var (
	ErrMissingFacilitatorURL = &ConfigError{"payment facilitator URL is required"}
	ErrMissingBucket         = &ConfigError{"storage bucket is required for bucket storage"}
)

// ConfigError represents a configuration error
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Message
}
