package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"oasip/internal/app/tokenstore"
)

const cookieStoreTimeout = 5 * time.Second

// savedCookie is the persisted form of a cookie set by the API host.
type savedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

func (s savedCookie) expired(now time.Time) bool {
	return !s.Expires.IsZero() && !s.Expires.After(now)
}

// persistentJar is a cookie jar that mirrors the API host's cookies into a token store,
// so the refresh cookie set by /auth/login survives the process.
type persistentJar struct {
	*cookiejar.Jar

	origin *url.URL
	store  tokenstore.TokenStore
	log    zerolog.Logger

	mu    sync.Mutex
	saved map[string]savedCookie
}

func newPersistentJar(jar *cookiejar.Jar, base *url.URL, store tokenstore.TokenStore, log zerolog.Logger) *persistentJar {
	return &persistentJar{
		Jar:    jar,
		origin: &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"},
		store:  store,
		log:    log,
		saved:  make(map[string]savedCookie),
	}
}

// load restores the persisted cookies into the jar, dropping expired ones.
func (j *persistentJar) load(ctx context.Context) error {
	raw, err := j.store.Get(ctx)
	if err != nil || raw == "" {
		return err
	}

	var saved []savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return err
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(saved))

	j.mu.Lock()
	for _, s := range saved {
		if s.expired(now) {
			continue
		}
		j.saved[s.Name] = s
		cookies = append(cookies, &http.Cookie{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		})
	}
	j.mu.Unlock()

	j.Jar.SetCookies(j.origin, cookies)
	return nil
}

// SetCookies stores cookies in the jar and, for the API host, persists them.
func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host || len(cookies) == 0 {
		return
	}

	now := time.Now()
	j.mu.Lock()
	for _, c := range cookies {
		s := savedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if s.Path == "" || !strings.HasPrefix(s.Path, "/") {
			s.Path = defaultCookiePath(u.Path)
		}
		if c.MaxAge > 0 {
			s.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		if c.MaxAge < 0 || c.Value == "" || s.expired(now) {
			delete(j.saved, c.Name)
			continue
		}
		j.saved[c.Name] = s
	}
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cookieStoreTimeout)
	defer cancel()
	if err := j.persist(ctx); err != nil {
		j.log.Warn().Err(err).Msg("Failed to persist session cookies")
	}
}

// forget erases the persisted cookies. The in-process jar is left to the server's
// own Set-Cookie instructions.
func (j *persistentJar) forget(ctx context.Context) error {
	j.mu.Lock()
	clear(j.saved)
	j.mu.Unlock()
	return j.store.Delete(ctx)
}

func (j *persistentJar) persist(ctx context.Context) error {
	j.mu.Lock()
	saved := make([]savedCookie, 0, len(j.saved))
	for _, s := range j.saved {
		saved = append(saved, s)
	}
	j.mu.Unlock()

	if len(saved) == 0 {
		return j.store.Delete(ctx)
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return j.store.Set(ctx, string(data))
}

// defaultCookiePath is the RFC 6265 default-path of a request path.
func defaultCookiePath(path string) string {
	if path == "" || path[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(path, "/")
	if i == 0 {
		return "/"
	}
	return path[:i]
}
