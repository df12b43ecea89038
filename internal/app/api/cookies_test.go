package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasip/internal/app/tokenstore"
)

func newJar(t *testing.T, base string, store tokenstore.TokenStore) *persistentJar {
	t.Helper()
	inner, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(base)
	require.NoError(t, err)
	return newPersistentJar(inner, u, store, zerolog.Nop())
}

func TestPersistentJar_SavesOnlyApiHostCookies(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	jar := newJar(t, "http://api.oasip.test/api", store)

	jar.SetCookies(&url.URL{Scheme: "http", Host: "api.oasip.test", Path: "/api/auth/login"}, []*http.Cookie{
		{Name: "refreshToken", Value: "R1", Path: "/", HttpOnly: true, MaxAge: 3600},
	})
	jar.SetCookies(&url.URL{Scheme: "http", Host: "cdn.example.test", Path: "/"}, []*http.Cookie{
		{Name: "tracking", Value: "x", Path: "/"},
	})

	raw, err := store.Get(context.Background())
	require.NoError(t, err)

	var saved []savedCookie
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, "refreshToken", saved[0].Name)
	assert.Equal(t, "R1", saved[0].Value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), saved[0].Expires, time.Minute)
}

func TestPersistentJar_LoadRestoresLiveCookies(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	saved := []savedCookie{
		{Name: "refreshToken", Value: "R1", Path: "/", Expires: time.Now().Add(time.Hour)},
		{Name: "stale", Value: "old", Path: "/", Expires: time.Now().Add(-time.Minute)},
	}
	data, err := json.Marshal(saved)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), string(data)))

	jar := newJar(t, "http://api.oasip.test/api", store)
	require.NoError(t, jar.load(context.Background()))

	cookies := jar.Cookies(&url.URL{Scheme: "http", Host: "api.oasip.test", Path: "/api/auth/refresh"})
	require.Len(t, cookies, 1)
	assert.Equal(t, "refreshToken", cookies[0].Name)
	assert.Equal(t, "R1", cookies[0].Value)
}

func TestPersistentJar_ClearedCookieIsErased(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	jar := newJar(t, "http://api.oasip.test/api", store)
	login := &url.URL{Scheme: "http", Host: "api.oasip.test", Path: "/api/auth/login"}

	jar.SetCookies(login, []*http.Cookie{{Name: "refreshToken", Value: "R1", Path: "/", MaxAge: 3600}})
	jar.SetCookies(login, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/", MaxAge: -1}})

	raw, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestPersistentJar_CorruptEntry(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "{not json"))

	jar := newJar(t, "http://api.oasip.test/api", store)
	assert.Error(t, jar.load(context.Background()))
}
