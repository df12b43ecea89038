/*
Package api is the typed client for the OASIP REST API.

Every operation takes a context, returns a typed *errs.CustomError on failure and never
reports a failure only through logs. Bearer-authenticated calls go through the refresh
guard (see WithAuthRetry): a 401 triggers one coalesced token refresh and one retry.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"oasip/internal/app/tokenstore"
	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/limiter"
	"oasip/internal/pkg/logx"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultRefreshTimeout = 10 * time.Second
)

// Config holds the connection settings of a Client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string

	RequestTimeout time.Duration
	RefreshTimeout time.Duration

	// RateLimit is the per-host request rate in requests per second. Zero or less disables limiting.
	RateLimit float64
	RateBurst int
}

// TokenListener observes token changes made by the refresh guard.
type TokenListener interface {
	// TokenRefreshed is called after a refreshed token has been persisted.
	TokenRefreshed(token string)

	// SessionExpired is called after a failed refresh has erased the stored token.
	SessionExpired()
}

// Client talks to the OASIP backend on behalf of one session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  tokenstore.TokenStore

	// fallback supplies a bearer token when the store holds none.
	fallback oauth2.TokenSource

	// cookies persists the refresh cookie next to the access token. Nil when the
	// caller supplied its own HTTP client or the store cannot hold a second key.
	cookies *persistentJar

	limiter        *limiter.HostRateLimiter
	refreshGroup   singleflight.Group
	refreshTimeout time.Duration

	mu        sync.RWMutex
	listeners []listenerEntry
	nextID    int

	log zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The caller owns its transport and jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTokenSource sets a fallback source of bearer tokens, used while no token is stored.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.fallback = ts
	}
}

// New creates a Client for cfg that persists tokens in tokens.
func New(cfg Config, tokens tokenstore.TokenStore, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, errs.Wrap(errs.ErrInvalidParams, errors.New("base URL must be an absolute http(s) URL"))
	}
	if tokens == nil {
		return nil, errs.Wrap(errs.ErrInvalidParams, errors.New("token store is required"))
	}

	c := &Client{
		baseURL:        base,
		tokens:         tokens,
		refreshTimeout: cfg.RefreshTimeout,
		log:            logx.Component("api"),
	}
	if c.refreshTimeout <= 0 {
		c.refreshTimeout = defaultRefreshTimeout
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		// The jar carries the refresh cookie set by /auth/login to /auth/refresh.
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		var cookies http.CookieJar = jar
		if store := tokenstore.Sibling(tokens, tokenstore.CookiesKey); store != nil {
			c.cookies = newPersistentJar(jar, base, store, c.log)
			cookies = c.cookies

			ctx, cancel := context.WithTimeout(context.Background(), cookieStoreTimeout)
			if err := c.cookies.load(ctx); err != nil {
				c.log.Warn().Err(err).Msg("Ignoring unreadable saved session cookies")
			}
			cancel()
		}

		limit := rate.Inf
		if cfg.RateLimit > 0 {
			limit = rate.Limit(cfg.RateLimit)
		}
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = limiter.NewHostRateLimiter(limit, burst)

		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}

		c.http = &http.Client{
			Jar:       cookies,
			Timeout:   timeout,
			Transport: c.limiter.Transport(logx.Transport(http.DefaultTransport)),
		}
	}

	return c, nil
}

// Close releases background resources held by the client.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Close()
	}
}

type listenerEntry struct {
	id int
	l  TokenListener
}

// AddListener registers l for token events and returns a function that removes it.
// Listeners are notified in registration order.
func (c *Client) AddListener(l TokenListener) (remove func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listenerEntry{id: id, l: l})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.listeners = slices.DeleteFunc(c.listeners, func(e listenerEntry) bool {
				return e.id == id
			})
		})
	}
}

func (c *Client) snapshotListeners() []TokenListener {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]TokenListener, 0, len(c.listeners))
	for _, e := range c.listeners {
		out = append(out, e.l)
	}
	return out
}

func (c *Client) notifyRefreshed(token string) {
	for _, l := range c.snapshotListeners() {
		l.TokenRefreshed(token)
	}
}

func (c *Client) notifyExpired() {
	for _, l := range c.snapshotListeners() {
		l.SessionExpired()
	}
}

// URL returns the absolute URL of path (relative to the API root) with query attached.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends r and converts transport failures to ErrTransport.
func (c *Client) do(r *http.Request) (*http.Response, error) {
	res, err := c.http.Do(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrTransport, err)
	}
	return res, nil
}

// forgetCookies erases the persisted session cookies, if any.
func (c *Client) forgetCookies(ctx context.Context) {
	if c.cookies == nil {
		return
	}
	if err := c.cookies.forget(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to erase saved session cookies")
	}
}

// authorize sets the bearer header from the token store, or from the fallback source.
// A request with no available token is sent anonymously; the server decides.
func (c *Client) authorize(r *http.Request) error {
	_, err := c.authorizeStored(r)
	return err
}

// authorizeStored is authorize that also reports the stored token the request carries,
// empty when it went out with a fallback token or none.
func (c *Client) authorizeStored(r *http.Request) (string, error) {
	token, err := c.tokens.Get(r.Context())
	if err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}
	stored := token

	if token == "" && c.fallback != nil {
		t, err := c.fallback.Token()
		if err != nil {
			c.log.Warn().Err(err).Msg("Fallback token source failed")
		} else {
			token = t.AccessToken
		}
	}

	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return stored, nil
}

// builder creates a fresh request for each attempt.
type builder func(ctx context.Context) (*http.Request, error)

// authed sends a bearer-authenticated request through the refresh guard.
func (c *Client) authed(ctx context.Context, build builder, opts []CallOption) (*http.Response, error) {
	o := collectOptions(opts)

	var sent string
	attempt := func(ctx context.Context) (*http.Response, error) {
		r, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if sent, err = c.authorizeStored(r); err != nil {
			return nil, err
		}
		return c.do(r)
	}

	return c.withAuthRetry(ctx, attempt, func() string { return sent }, o.onUnauthorized)
}

// public sends a request that carries no credentials.
func (c *Client) public(ctx context.Context, build builder) (*http.Response, error) {
	r, err := build(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(r)
}
