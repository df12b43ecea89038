package api

import (
	"context"
	"net/http"

	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/resp"
)

// refreshKey is the single-flight key shared by every refresh.
const refreshKey = "refresh"

// Attempt performs one try of a request and returns the raw response.
type Attempt func(ctx context.Context) (*http.Response, error)

// WithAuthRetry runs attempt and recovers from one expired access token.
//
// A 401 triggers a refresh, unless the stored token changed since attempt read it; then
// attempt simply runs again with the newer token. If the refresh succeeds the new token
// has been persisted and attempt runs exactly once more; its response is returned
// whatever the status, except that a second 401 becomes ErrUnauthorized. If the refresh
// is rejected the stored token is gone, listeners were told the session expired,
// onUnauthorized runs and the result is ErrUnauthorized. Transport failures and
// cancellation are returned as they are.
//
// Any non-401 response is returned unread; the caller owns its body.
func (c *Client) WithAuthRetry(ctx context.Context, attempt Attempt, onUnauthorized func()) (*http.Response, error) {
	return c.withAuthRetry(ctx, attempt, nil, onUnauthorized)
}

// withAuthRetry is WithAuthRetry with sent reporting the stored token the last attempt
// used. Without it the token stored before the attempt stands in.
func (c *Client) withAuthRetry(ctx context.Context, attempt Attempt, sent func() string, onUnauthorized func()) (*http.Response, error) {
	if sent == nil {
		before, _ := c.tokens.Get(ctx)
		sent = func() string { return before }
	}

	res, err := attempt(ctx)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusUnauthorized {
		return res, nil
	}
	resp.Discard(res)

	if current, err := c.tokens.Get(ctx); err == nil && current != "" && current != sent() {
		c.log.Debug().Msg("Token changed during the request, retrying without refresh")
	} else if _, err := c.sharedRefresh(ctx); err != nil {
		if !errs.Is(err, errs.ErrRefreshFailed) {
			return nil, err
		}
		c.log.Info().Msg("Session expired, refresh rejected")
		callUnauthorized(onUnauthorized)
		return nil, errs.Wrap(errs.ErrUnauthorized, err).WithStatus(http.StatusUnauthorized)
	}

	res, err = attempt(ctx)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized {
		c.log.Warn().Msg("Request rejected again with a renewed token")
		unauthorized := resp.FromResponse(res)
		callUnauthorized(onUnauthorized)
		return nil, unauthorized
	}

	return res, nil
}

// sharedRefresh joins the in-flight refresh or starts one. The refresh itself is
// detached from ctx and bounded by the refresh timeout, so one waiter giving up does
// not fail the others; ctx only bounds how long this caller waits.
func (c *Client) sharedRefresh(ctx context.Context) (string, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.Refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return "", errs.Wrap(errs.ErrTransport, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func callUnauthorized(fn func()) {
	if fn != nil {
		fn()
	}
}
