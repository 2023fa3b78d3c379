package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	TikTok   TikTokConfig
	Storage  StorageConfig
	OIDC     OIDCConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port           int    `env:"SERVER_PORT" envDefault:"8080"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	LogJSON        bool   `env:"LOG_JSON" envDefault:"false"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/clipstack.db"`
}

// AuthConfig holds authentication secrets and session parameters.
type AuthConfig struct {
	// JWTSecret signs dashboard session tokens (HS256).
	JWTSecret string `env:"JWT_SECRET"`
	// APIKeySecret is mixed into API key fingerprints. Rotating it
	// invalidates every issued key.
	APIKeySecret string `env:"API_KEY_SECRET"`
	// EncryptionKey seals stored TikTok OAuth tokens (32 bytes or 64 hex chars).
	EncryptionKey string        `env:"TOKEN_ENCRYPTION_KEY"`
	TokenDuration time.Duration `env:"JWT_DURATION" envDefault:"168h"`
}

// TikTokConfig holds TikTok Open API credentials.
type TikTokConfig struct {
	ClientKey    string `env:"TIKTOK_CLIENT_KEY"`
	ClientSecret string `env:"TIKTOK_CLIENT_SECRET"`
	// Stub, when non-empty, selects the offline stub client instead of the
	// real API (for development and testing). The value labels stubbed data.
	Stub string `env:"TIKTOK_STUB"`
}

// StorageConfig holds object storage configuration for video blobs.
type StorageConfig struct {
	// Driver selects the blob backend: "s3" or "local".
	Driver    string `env:"BLOB_DRIVER" envDefault:"local"`
	Bucket    string `env:"BLOB_BUCKET" envDefault:"tiktok-videos"`
	Region    string `env:"BLOB_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"BLOB_ENDPOINT"` // Optional S3-compatible endpoint
	LocalPath string `env:"BLOB_LOCAL_PATH" envDefault:"data/blobs"`
}

// OIDCConfig holds optional SSO login configuration.
type OIDCConfig struct {
	Enabled        bool   `env:"OIDC_ENABLED" envDefault:"false"`
	IssuerURL      string `env:"OIDC_ISSUER_URL"`
	ClientID       string `env:"OIDC_CLIENT_ID"`
	ClientSecret   string `env:"OIDC_CLIENT_SECRET"`
	RedirectURL    string `env:"OIDC_REDIRECT_URL"`
	Scopes         string `env:"OIDC_SCOPES" envDefault:"openid,email,profile"`
	AllowedDomains string `env:"OIDC_ALLOWED_DOMAINS"`
	// FrontendURL receives the issued token after a successful callback.
	FrontendURL string `env:"OIDC_FRONTEND_URL" envDefault:"/"`
}

// GetScopes returns the OIDC scopes as a slice.
func (c *OIDCConfig) GetScopes() []string {
	if c.Scopes == "" {
		return []string{"openid", "email", "profile"}
	}
	return strings.Split(c.Scopes, ",")
}

// GetAllowedDomains returns the allowed email domains as a slice.
func (c *OIDCConfig) GetAllowedDomains() []string {
	if c.AllowedDomains == "" {
		return nil
	}
	domains := strings.Split(c.AllowedDomains, ",")
	for i := range domains {
		domains[i] = strings.TrimSpace(domains[i])
	}
	return domains
}

// EncryptionKeyBytes returns the token encryption key as 32 bytes.
func (c *AuthConfig) EncryptionKeyBytes() ([]byte, error) {
	return secretBytes("TOKEN_ENCRYPTION_KEY", c.EncryptionKey)
}

// secretBytes decodes a 32-byte secret given as raw bytes or 64 hex chars.
func secretBytes(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	if len(value) == 64 {
		decoded, err := hex.DecodeString(value)
		if err == nil {
			return decoded, nil
		}
	}
	if len(value) != 32 {
		return nil, fmt.Errorf("%s must be 32 bytes (or 64 hex characters)", name)
	}
	return []byte(value), nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}
	if err := env.Parse(&cfg.TikTok); err != nil {
		return nil, fmt.Errorf("parsing tiktok config: %w", err)
	}
	if err := env.Parse(&cfg.Storage); err != nil {
		return nil, fmt.Errorf("parsing storage config: %w", err)
	}
	if err := env.Parse(&cfg.OIDC); err != nil {
		return nil, fmt.Errorf("parsing oidc config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAllowedOrigins returns the CORS origins as a slice.
func (c *ServerConfig) GetAllowedOrigins() []string {
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.APIKeySecret == "" {
		return fmt.Errorf("API_KEY_SECRET is required")
	}
	if _, err := c.Auth.EncryptionKeyBytes(); err != nil {
		return err
	}

	// If using the stub client, TikTok credentials are not required
	if c.TikTok.Stub == "" {
		if c.TikTok.ClientKey == "" {
			return fmt.Errorf("TIKTOK_CLIENT_KEY is required (or set TIKTOK_STUB for testing)")
		}
		if c.TikTok.ClientSecret == "" {
			return fmt.Errorf("TIKTOK_CLIENT_SECRET is required (or set TIKTOK_STUB for testing)")
		}
	}

	switch c.Storage.Driver {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("BLOB_BUCKET is required when BLOB_DRIVER=s3")
		}
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("BLOB_LOCAL_PATH is required when BLOB_DRIVER=local")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Storage.Driver)
	}

	// Validate OIDC config when enabled
	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when OIDC is enabled")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC is enabled")
		}
		if c.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC_CLIENT_SECRET is required when OIDC is enabled")
		}
		if c.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC_REDIRECT_URL is required when OIDC is enabled")
		}
	}

	return nil
}

// UseStub returns true if the TikTok stub client should be used.
func (c *Config) UseStub() bool {
	return c.TikTok.Stub != ""
}
