package api

import (
	"context"
	"net/http"

	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/logx"
	"oasip/internal/pkg/req"
	"oasip/internal/pkg/resp"
)

// LoginOptions carries the optional outcome callbacks of Login. They run in addition
// to the returned result, never instead of it.
type LoginOptions struct {
	OnSuccess      func(*LoginResponse)
	OnUnauthorized func(*resp.ErrorResponse)
	OnNotFound     func(*resp.ErrorResponse)
}

// Login exchanges credentials for an access token and persists it. The response
// also sets the refresh cookie used by Refresh.
//
// 200 persists the token and calls OnSuccess. 401 (wrong password) calls OnUnauthorized
// and returns ErrUnauthorized. 404 (unknown email) calls OnNotFound and returns ErrNotFound.
func (c *Client) Login(ctx context.Context, in LoginRequest, opts LoginOptions) (*LoginResponse, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewJSON(ctx, http.MethodPost, c.URL("/auth/login", nil), in)
	})
	if err != nil {
		return nil, err
	}

	switch res.StatusCode {
	case http.StatusOK:
		var out LoginResponse
		if err := resp.DecodeJSON(res, &out); err != nil {
			return nil, err
		}
		if out.AccessToken == "" {
			return nil, errs.NewError(errs.ErrDecodeFailed).WithStatus(res.StatusCode)
		}
		if err := c.tokens.Set(ctx, out.AccessToken); err != nil {
			return nil, errs.Wrap(errs.ErrUnknown, err)
		}
		logx.Info("Signed in", "email", in.Email)
		if opts.OnSuccess != nil {
			opts.OnSuccess(&out)
		}
		return &out, nil

	case http.StatusUnauthorized:
		body, customErr := resp.ReadError(res)
		if opts.OnUnauthorized != nil {
			opts.OnUnauthorized(body)
		}
		return nil, customErr

	case http.StatusNotFound:
		body, customErr := resp.ReadError(res)
		if opts.OnNotFound != nil {
			opts.OnNotFound(body)
		}
		return nil, customErr

	default:
		return nil, resp.FromResponse(res)
	}
}

// Logout ends the server session and erases the stored token. On failure the stored
// token is left in place.
func (c *Client) Logout(ctx context.Context) error {
	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := req.New(ctx, http.MethodPost, c.URL("/auth/logout", nil))
		if err != nil {
			return nil, err
		}
		return r, c.authorize(r)
	})
	if err != nil {
		return err
	}
	if err := resp.Expect(res, http.StatusOK); err != nil {
		return err
	}
	resp.Discard(res)

	if err := c.tokens.Delete(ctx); err != nil {
		return errs.Wrap(errs.ErrUnknown, err)
	}
	c.forgetCookies(ctx)
	logx.Info("Signed out")
	return nil
}

// Refresh obtains a new access token with the refresh cookie and persists it.
//
// A rejected refresh, or a 200 without a usable access token, erases the stored token,
// tells listeners the session expired and returns ErrRefreshFailed. Transport failures
// return ErrTransport and change nothing.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, http.MethodPost, c.URL("/auth/refresh", nil))
	})
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", c.rejectRefresh(ctx, resp.FromResponse(res), res.StatusCode)
	}

	var out LoginResponse
	if err := resp.DecodeJSON(res, &out); err != nil {
		return "", c.rejectRefresh(ctx, err, res.StatusCode)
	}
	if out.AccessToken == "" {
		return "", c.rejectRefresh(ctx, errs.NewError(errs.ErrDecodeFailed).WithMessage("refresh returned no access token"), res.StatusCode)
	}

	if err := c.tokens.Set(ctx, out.AccessToken); err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}
	c.log.Debug().Msg("Refreshed access token")
	c.notifyRefreshed(out.AccessToken)

	return out.AccessToken, nil
}

// rejectRefresh ends the local session after a refresh that produced no token.
func (c *Client) rejectRefresh(ctx context.Context, cause error, status int) error {
	if err := c.tokens.Delete(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to erase stored token after rejected refresh")
	}
	c.forgetCookies(ctx)
	c.notifyExpired()
	return errs.Wrap(errs.ErrRefreshFailed, cause).WithStatus(status)
}

// Match checks a password for an account: true on 200, false on 401, ErrNotFound when
// the email is unknown.
func (c *Client) Match(ctx context.Context, in MatchRequest) (bool, error) {
	if err := validate(in); err != nil {
		return false, err
	}

	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewJSON(ctx, http.MethodPost, c.URL("/auth/match", nil), in)
	})
	if err != nil {
		return false, err
	}

	switch res.StatusCode {
	case http.StatusOK:
		resp.Discard(res)
		return true, nil
	case http.StatusUnauthorized:
		resp.Discard(res)
		return false, nil
	default:
		return false, resp.FromResponse(res)
	}
}
