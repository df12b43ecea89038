package api

import (
	"context"
	"net/http"

	"oasip/internal/pkg/req"
	"oasip/internal/pkg/resp"
)

// getJSON performs an authenticated GET and decodes a 200 body into dst.
func (c *Client) getJSON(ctx context.Context, url string, dst any, opts []CallOption) error {
	return c.sendJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, http.MethodGet, url)
	}, http.StatusOK, dst, opts)
}

// sendJSON performs an authenticated request and decodes the body of the expected status into dst.
func (c *Client) sendJSON(ctx context.Context, build builder, status int, dst any, opts []CallOption) error {
	res, err := c.authed(ctx, build, opts)
	if err != nil {
		return err
	}
	if err := resp.Expect(res, status); err != nil {
		return err
	}
	return resp.DecodeJSON(res, dst)
}

// sendNoContent performs an authenticated body-less request and discards the response.
func (c *Client) sendNoContent(ctx context.Context, method, url string, status int, opts []CallOption) error {
	res, err := c.authed(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, method, url)
	}, opts)
	if err != nil {
		return err
	}
	if err := resp.Expect(res, status); err != nil {
		return err
	}
	resp.Discard(res)
	return nil
}
