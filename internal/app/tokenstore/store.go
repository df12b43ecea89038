/*
Package tokenstore is the single source of truth for the persisted bearer token.

Every backend stores the token under AccessTokenKey (optionally namespaced by a key
prefix) and offers get, set and delete. The same backend also keeps the API session
cookies under CookiesKey, so a later process can still refresh the token.
*/
package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AccessTokenKey is the well-known key under which the access token is persisted.
const AccessTokenKey = "accessToken"

// CookiesKey holds the API session cookies (the refresh cookie) next to the access token.
const CookiesKey = "cookies"

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// TokenStore reads, writes and erases the persisted access token.
// Get returns "" and a nil error when no token is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Keyed is a TokenStore that can hold further entries in the same backend.
type Keyed interface {
	TokenStore

	// Key is the full key of this entry, including any prefix.
	Key() string

	// WithKey returns a store for key that shares this store's backend.
	WithKey(key string) TokenStore
}

// Sibling returns the entry name stored next to s, keeping the key prefix of s.
// It returns nil when s cannot hold other entries.
func Sibling(s TokenStore, name string) TokenStore {
	keyed, ok := s.(Keyed)
	if !ok {
		return nil
	}
	return keyed.WithKey(strings.TrimSuffix(keyed.Key(), AccessTokenKey) + name)
}

// Config selects and configures a backend.
type Config struct {
	Driver string

	// KeyPrefix namespaces AccessTokenKey in shared backends (file, redis, postgres).
	KeyPrefix string

	// Path is the JSON file used by the file driver.
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL string
}

// DefaultPath returns the default location of the file store.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "oasip", "credentials.json")
}

// Open builds the configured backend. The returned func releases its resources.
func Open(ctx context.Context, cfg Config) (TokenStore, func(), error) {
	key := cfg.KeyPrefix + AccessTokenKey

	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), func() {}, nil

	case DriverFile, "":
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		return NewFileStore(path, key), func() {}, nil

	case DriverRedis:
		store, closeFn := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, key)
		if err := store.Ping(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("connect token store redis: %w", err)
		}
		return store, closeFn, nil

	case DriverPostgres:
		store, closeFn, err := OpenPostgresStore(ctx, cfg.DatabaseURL, key)
		if err != nil {
			return nil, nil, fmt.Errorf("connect token store postgres: %w", err)
		}
		return store, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown token store driver %q", cfg.Driver)
	}
}

var (
	_ Keyed = (*MemoryStore)(nil)
	_ Keyed = (*FileStore)(nil)
	_ Keyed = (*RedisStore)(nil)
	_ Keyed = (*PostgresStore)(nil)
)
