package api

import (
	"context"
	"fmt"
	"net/http"

	"oasip/internal/app/user"
	"oasip/internal/pkg/req"
)

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context, opts ...CallOption) ([]Account, error) {
	var accounts []Account
	err := c.getJSON(ctx, c.URL("/users", nil), &accounts, opts)
	return accounts, err
}

func (c *Client) GetUser(ctx context.Context, id int, opts ...CallOption) (*Account, error) {
	var account Account
	if err := c.getJSON(ctx, c.URL(userPath(id), nil), &account, opts); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListRoles returns the roles an account can be given.
func (c *Client) ListRoles(ctx context.Context, opts ...CallOption) ([]user.Role, error) {
	var roles []user.Role
	err := c.getJSON(ctx, c.URL("/users/roles", nil), &roles, opts)
	return roles, err
}

// CreateUser creates an account. Name and email are trimmed before validation.
func (c *Client) CreateUser(ctx context.Context, in CreateUserRequest, opts ...CallOption) (*Account, error) {
	in = in.normalize()
	if err := validate(in); err != nil {
		return nil, err
	}

	var account Account
	err := c.sendJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewJSON(ctx, http.MethodPost, c.URL("/users", nil), in)
	}, http.StatusCreated, &account, opts)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, in EditUserRequest, opts ...CallOption) (*Account, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	var account Account
	err := c.sendJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewJSON(ctx, http.MethodPatch, c.URL(userPath(id), nil), in)
	}, http.StatusOK, &account, opts)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteUser removes an account. The server answers 204.
func (c *Client) DeleteUser(ctx context.Context, id int, opts ...CallOption) error {
	return c.sendNoContent(ctx, http.MethodDelete, c.URL(userPath(id), nil), http.StatusNoContent, opts)
}

func userPath(id int) string {
	return fmt.Sprintf("/users/%d", id)
}
