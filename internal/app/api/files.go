package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/req"
	"oasip/internal/pkg/resp"
)

// Download is an attachment being streamed from the server. Close Body when done.
type Download struct {
	Name          string
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// FileName returns the original name of an attachment without downloading it.
func (c *Client) FileName(ctx context.Context, id string, opts ...CallOption) (string, error) {
	path, err := filePath(id)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("noContent", "true")

	res, err := c.authed(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, http.MethodGet, c.URL(path, query))
	}, opts)
	if err != nil {
		return "", err
	}
	if err := resp.Expect(res, http.StatusOK); err != nil {
		return "", err
	}
	defer resp.Discard(res)

	return fileNameOf(res)
}

// DownloadFile starts streaming an attachment. The caller must close the returned Body.
func (c *Client) DownloadFile(ctx context.Context, id string, opts ...CallOption) (*Download, error) {
	path, err := filePath(id)
	if err != nil {
		return nil, err
	}
	res, err := c.authed(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, http.MethodGet, c.URL(path, nil))
	}, opts)
	if err != nil {
		return nil, err
	}
	if err := resp.Expect(res, http.StatusOK); err != nil {
		return nil, err
	}

	name, err := fileNameOf(res)
	if err != nil {
		resp.Discard(res)
		return nil, err
	}

	return &Download{
		Name:          name,
		ContentType:   res.Header.Get("Content-Type"),
		ContentLength: res.ContentLength,
		Body:          res.Body,
	}, nil
}

// FileURL returns the address of an attachment, for clients that fetch it themselves.
func (c *Client) FileURL(id string) (string, error) {
	path, err := filePath(id)
	if err != nil {
		return "", err
	}
	return c.URL(path, nil), nil
}

func fileNameOf(res *http.Response) (string, error) {
	name, err := resp.Filename(res)
	if err != nil {
		return "", errs.Wrap(errs.ErrDecodeFailed, err).WithStatus(res.StatusCode)
	}
	return name, nil
}

// filePath returns the attachment path of id, which must be a UUID.
func filePath(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", errs.Wrap(errs.ErrInvalidParams, err).WithDetails(map[string]string{"uuid": "must be a valid UUID"})
	}
	return "/events/files/" + parsed.String(), nil
}
