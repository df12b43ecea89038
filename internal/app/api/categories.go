package api

import (
	"context"
	"fmt"
	"net/http"

	"oasip/internal/pkg/req"
	"oasip/internal/pkg/resp"
)

// ListCategories returns every event category. No credentials are needed.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, http.MethodGet, c.URL("/categories", nil))
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Expect(res, http.StatusOK); err != nil {
		return nil, err
	}

	var categories []Category
	if err := resp.DecodeJSON(res, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListLecturerCategories returns the categories owned by the signed-in lecturer.
func (c *Client) ListLecturerCategories(ctx context.Context, opts ...CallOption) ([]Category, error) {
	var categories []Category
	err := c.getJSON(ctx, c.URL("/categories/lecturer", nil), &categories, opts)
	return categories, err
}

// UpdateCategory edits a category. A duplicate name comes back as a 400 with details.
func (c *Client) UpdateCategory(ctx context.Context, id int, in EditCategoryRequest) (*Category, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewJSON(ctx, http.MethodPatch, c.URL(fmt.Sprintf("/categories/%d", id), nil), in)
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Expect(res, http.StatusOK); err != nil {
		return nil, err
	}

	var category Category
	if err := resp.DecodeJSON(res, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
