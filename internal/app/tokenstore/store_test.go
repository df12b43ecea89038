package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) TokenStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) TokenStore {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) TokenStore {
			return NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"), AccessTokenKey)
		},
		"redis": func(t *testing.T) TokenStore {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStoreWithClient(client, "test:"+AccessTokenKey)
		},
		"postgres": func(t *testing.T) TokenStore {
			dsn := os.Getenv("OASIP_TEST_DATABASE_URL")
			if dsn == "" {
				t.Skip("OASIP_TEST_DATABASE_URL not set")
			}
			store, closeFn, err := OpenPostgresStore(context.Background(), dsn, "test:"+t.Name())
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = store.Delete(context.Background())
				closeFn()
			})
			return store
		},
	}
}

func TestTokenStore_Contract(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			token, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, token, "absent token reads as empty")

			require.NoError(t, store.Set(ctx, "T1"))
			token, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "T1", token)

			require.NoError(t, store.Set(ctx, "T2"))
			token, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "T2", token, "set overwrites")

			require.NoError(t, store.Delete(ctx))
			token, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, token)

			require.NoError(t, store.Delete(ctx), "delete is idempotent")
		})
	}
}

func TestTokenStore_ConcurrentWritesLastWriterWins(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Set(ctx, "concurrent"))
				}()
			}
			wg.Wait()

			token, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "concurrent", token)
		})
	}
}

func TestSibling_SharesBackendKeepsPrefix(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			cookies := Sibling(store, CookiesKey)
			require.NotNil(t, cookies)
			t.Cleanup(func() { _ = cookies.Delete(ctx) })

			keyed := store.(Keyed)
			assert.Equal(t, strings.TrimSuffix(keyed.Key(), AccessTokenKey)+CookiesKey, cookies.(Keyed).Key())

			require.NoError(t, store.Set(ctx, "T1"))
			require.NoError(t, cookies.Set(ctx, `[{"name":"refreshToken"}]`))

			token, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "T1", token)

			require.NoError(t, store.Delete(ctx))
			raw, err := Sibling(store, CookiesKey).Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, `[{"name":"refreshToken"}]`, raw, "siblings see the same backend")
		})
	}
}

type plainStore struct{ TokenStore }

func TestSibling_UnkeyedStore(t *testing.T) {
	assert.Nil(t, Sibling(plainStore{NewMemoryStore()}, CookiesKey))
}

func TestFileStore_PreservesOtherKeysAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	ctx := context.Background()

	staging := NewFileStore(path, "staging:"+AccessTokenKey)
	prod := NewFileStore(path, "prod:"+AccessTokenKey)

	require.NoError(t, staging.Set(ctx, "S"))
	require.NoError(t, prod.Set(ctx, "P"))
	require.NoError(t, staging.Delete(ctx))

	token, err := prod.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, AccessTokenKey).Get(context.Background())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &MemoryStore{}, store)

	store, closeFn, err = Open(ctx, Config{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "c.json")})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &FileStore{}, store)

	mr := miniredis.RunT(t)
	store, closeFn, err = Open(ctx, Config{Driver: DriverRedis, RedisAddr: mr.Addr(), KeyPrefix: "oasip:"})
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, store.Set(ctx, "R"))
	got, err := mr.Get("oasip:" + AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "R", got)

	_, _, err = Open(ctx, Config{Driver: "etcd"})
	assert.Error(t, err)

	_, _, err = Open(ctx, Config{Driver: DriverPostgres})
	assert.Error(t, err)
}
