package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"oasip/internal/app/api"
	"oasip/internal/app/tokenstore"
	"oasip/internal/pkg/auth/jwt"
	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/logx"
)

const (
	ProviderID   = "oasip"
	ProviderName = "OASIP"
)

// Authenticator is the part of the API client the provider drives.
type Authenticator interface {
	Login(ctx context.Context, in api.LoginRequest, opts api.LoginOptions) (*api.LoginResponse, error)
	Logout(ctx context.Context) error
	AddListener(l api.TokenListener) (remove func())
}

// Config tunes a Provider.
type Config struct {
	// AuthLoadingDelay holds Preload in the loading state when a token is stored.
	AuthLoadingDelay time.Duration
}

// Provider is the OASIP identity provider: it owns the session Store and keeps it
// in line with the stored token.
type Provider struct {
	auth     Authenticator
	tokens   tokenstore.TokenStore
	registry *Registry
	store    *Store
	delay    time.Duration
	detach   func()
	log      zerolog.Logger

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProvider creates a provider in the loading state and subscribes it to the
// client's token events.
func NewProvider(auth Authenticator, tokens tokenstore.TokenStore, registry *Registry, cfg Config) *Provider {
	p := &Provider{
		auth:     auth,
		tokens:   tokens,
		registry: registry,
		store:    NewStore(),
		delay:    cfg.AuthLoadingDelay,
		log:      logx.Component("session"),
		sleep:    sleepContext,
	}
	p.detach = auth.AddListener(p)
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Provider) ID() string   { return ProviderID }
func (p *Provider) Name() string { return ProviderName }

// Store exposes the state holder for reading and subscribing.
func (p *Provider) Store() *Store { return p.store }

// State returns the current session state.
func (p *Provider) State() State { return p.store.Get() }

// Preload derives the initial state from the stored token and makes this the active
// provider. A missing or malformed token gives the anonymous state. Only a failing
// token store or a cancelled ctx return an error; the state is then anonymous or
// still loading respectively.
func (p *Provider) Preload(ctx context.Context) error {
	token, err := p.tokens.Get(ctx)
	if err != nil {
		p.setClaims(nil)
		p.registry.SetActive(p)
		return errs.Wrap(errs.ErrUnknown, err)
	}

	if token != "" && p.delay > 0 {
		if err := p.sleep(ctx, p.delay); err != nil {
			return errs.Wrap(errs.ErrTransport, err)
		}
	}

	p.setClaims(p.decode(token))
	p.registry.SetActive(p)
	return nil
}

// Login signs in through the API client. On success the new token's claims become the
// session and this becomes the active provider; on failure the state is unchanged.
func (p *Provider) Login(ctx context.Context, in api.LoginRequest, opts api.LoginOptions) (*api.LoginResponse, error) {
	out, err := p.auth.Login(ctx, in, opts)
	if err != nil {
		return nil, err
	}

	p.setClaims(p.decode(out.AccessToken))
	p.registry.SetActive(p)
	return out, nil
}

// Logout signs out through the API client. Only a successful logout clears the session.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.auth.Logout(ctx); err != nil {
		p.log.Warn().Err(err).Msg("Logout failed, session kept")
		return err
	}
	p.setClaims(nil)
	return nil
}

// TokenRefreshed re-derives the session from a refreshed token.
func (p *Provider) TokenRefreshed(token string) {
	p.setClaims(p.decode(token))
}

// SessionExpired clears the session after the refresh token was rejected.
func (p *Provider) SessionExpired() {
	p.log.Info().Msg("Session expired")
	p.setClaims(nil)
}

// Close detaches from the client, drops all subscribers and, if active, leaves the registry.
func (p *Provider) Close() {
	if p.detach != nil {
		p.detach()
	}
	p.store.reset()
	p.registry.clearIf(p)
}

// decode returns the claims of token, or nil when there is no usable token.
func (p *Provider) decode(token string) *jwt.Payload {
	if token == "" {
		p.log.Debug().Msg("No access token found")
		return nil
	}

	claims, err := jwt.DecodeToken(token)
	if err != nil {
		p.log.Warn().Err(err).Msg("Stored access token is malformed, treating as signed out")
		return nil
	}
	return claims
}

func (p *Provider) setClaims(claims *jwt.Payload) {
	p.store.set(Derive(claims))
}

var (
	_ Authenticator     = (*api.Client)(nil)
	_ api.TokenListener = (*Provider)(nil)
	_ SessionProvider   = (*Provider)(nil)
)
