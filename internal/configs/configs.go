/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from environment variables, optionally seeded from a .env file in the working
directory: the running environment, the API base URL, timeouts, the token store backend, and the
optional Azure AD fallback credentials and S3 attachment mirror.
*/
package configs

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"oasip/internal/app/api"
	"oasip/internal/app/session"
	"oasip/internal/app/storage"
	"oasip/internal/app/tokenstore"
)

// DevelopmentAPIURL is used when API_URL is unset in development.
const DevelopmentAPIURL = "http://localhost:8080/api"

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Settings
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	APIURL           string        `env:"API_URL"`
	AuthLoadingDelay time.Duration `env:"AUTH_LOADING_DELAY" envDefault:"0s"`

	// Transport Settings
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"10s"`
	RateLimit      float64       `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst      int           `env:"RATE_BURST" envDefault:"20"`

	TokenStore TokenStoreConfig `envPrefix:"TOKEN_STORE_"`
	AAD        AADConfig        `envPrefix:"AAD_"`
	S3         S3Config         `envPrefix:"S3_"`
}

// TokenStoreConfig selects where the access token is persisted.
type TokenStoreConfig struct {
	Driver        string `env:"DRIVER" envDefault:"file"`
	Path          string `env:"PATH"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"oasip:"`
	DatabaseURL   string `env:"DATABASE_URL"`
}

// AADConfig holds client credentials for the optional Azure AD fallback token source.
type AADConfig struct {
	TenantID     string   `env:"TENANT_ID"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

// S3Config holds the attachment mirror bucket settings.
type S3Config struct {
	BucketName      string `env:"BUCKET_NAME"`
	Endpoint        string `env:"ENDPOINT"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Region          string `env:"REGION"`
}

// LoadConfig reads .env (when present) and the process environment, applies
// environment-dependent defaults and validates the result.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.sanitize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *AppConfig) sanitize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.TokenStore.Driver = strings.ToLower(strings.TrimSpace(c.TokenStore.Driver))

	scopes := c.AAD.Scopes[:0]
	for _, scope := range c.AAD.Scopes {
		if trimmed := strings.TrimSpace(scope); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	c.AAD.Scopes = scopes

	if c.APIURL == "" && c.IsDevelopment() {
		c.APIURL = DevelopmentAPIURL
	}
}

func (c *AppConfig) validate() error {
	// --- API ---
	if c.APIURL == "" {
		return fmt.Errorf("API_URL environment variable is required in %s environment", c.Environment)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}

	if c.AuthLoadingDelay < 0 {
		return fmt.Errorf("AUTH_LOADING_DELAY must not be negative")
	}
	if c.RequestTimeout <= 0 || c.RefreshTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT and REFRESH_TIMEOUT must be positive")
	}

	// --- Token Store ---
	switch c.TokenStore.Driver {
	case tokenstore.DriverFile, tokenstore.DriverMemory:
	case tokenstore.DriverRedis:
		if c.TokenStore.RedisAddr == "" {
			return fmt.Errorf("TOKEN_STORE_REDIS_ADDR environment variable is required for the redis token store")
		}
	case tokenstore.DriverPostgres:
		if c.TokenStore.DatabaseURL == "" {
			return fmt.Errorf("TOKEN_STORE_DATABASE_URL environment variable is required for the postgres token store")
		}
	default:
		return fmt.Errorf("unknown TOKEN_STORE_DRIVER %q", c.TokenStore.Driver)
	}

	// --- Azure AD ---
	aad := c.AAD
	if aad.TenantID != "" || aad.ClientID != "" || aad.ClientSecret != "" {
		if aad.TenantID == "" || aad.ClientID == "" || aad.ClientSecret == "" {
			return fmt.Errorf("AAD_TENANT_ID, AAD_CLIENT_ID and AAD_CLIENT_SECRET must be set together")
		}
	}

	// --- S3 Storage ---
	if c.S3.BucketName != "" {
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3_BUCKET_NAME is set")
		}
	}

	return nil
}

// APIConfig returns the HTTP client settings.
func (c *AppConfig) APIConfig() api.Config {
	return api.Config{
		BaseURL:        c.APIURL,
		RequestTimeout: c.RequestTimeout,
		RefreshTimeout: c.RefreshTimeout,
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
	}
}

// SessionConfig returns the session provider settings.
func (c *AppConfig) SessionConfig() session.Config {
	return session.Config{AuthLoadingDelay: c.AuthLoadingDelay}
}

// TokenStoreConfig returns the token store settings. The key prefix only applies to redis.
func (c *AppConfig) TokenStoreConfig() tokenstore.Config {
	cfg := tokenstore.Config{
		Driver:        c.TokenStore.Driver,
		Path:          c.TokenStore.Path,
		RedisAddr:     c.TokenStore.RedisAddr,
		RedisPassword: c.TokenStore.RedisPassword,
		RedisDB:       c.TokenStore.RedisDB,
		DatabaseURL:   c.TokenStore.DatabaseURL,
	}
	if cfg.Driver == tokenstore.DriverRedis {
		cfg.KeyPrefix = c.TokenStore.RedisPrefix
	}
	return cfg
}

// StorageEnabled reports whether the attachment mirror is configured.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3.BucketName != ""
}

// StorageConfig returns the attachment mirror settings.
func (c *AppConfig) StorageConfig() storage.ServiceConfig {
	return storage.ServiceConfig{
		S3BucketName:      c.S3.BucketName,
		S3Endpoint:        c.S3.Endpoint,
		S3AccessKeyID:     c.S3.AccessKeyID,
		S3SecretAccessKey: c.S3.SecretAccessKey,
		S3Region:          c.S3.Region,
	}
}

// AADEnabled reports whether the Azure AD fallback token source is configured.
func (c *AppConfig) AADEnabled() bool {
	return c.AAD.ClientID != ""
}

// AADTokenURL is the tenant's OAuth2 v2 token endpoint.
func (c *AppConfig) AADTokenURL() string {
	return "https://login.microsoftonline.com/" + url.PathEscape(c.AAD.TenantID) + "/oauth2/v2.0/token"
}
