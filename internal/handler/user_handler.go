/*
Package handler provides command handlers for account management.
*/
package handler

import (
	"context"

	"oasip/internal/app/api"
	"oasip/internal/app/user"
)

// HandleListUsers lists every account.
func HandleListUsers(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		if err := newFlags(deps, "users").parse(args); err != nil {
			return nil, err
		}
		return deps.Client.ListUsers(ctx)
	}
}

// HandleGetUser shows one account.
func HandleGetUser(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "user")
		id := fs.Int("id", 0, "user id")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}
		return deps.Client.GetUser(ctx, *id)
	}
}

// HandleListRoles lists the roles an account can hold.
func HandleListRoles(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		if err := newFlags(deps, "roles").parse(args); err != nil {
			return nil, err
		}
		return deps.Client.ListRoles(ctx)
	}
}

func HandleCreateUser(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "user-create")
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "login email")
		password := fs.String("password", "", "initial password, 8 to 14 characters")
		role := fs.String("role", string(user.RoleStudent), "ADMIN, LECTURER or STUDENT")
		if err := fs.parse(args); err != nil {
			return nil, err
		}

		return deps.Client.CreateUser(ctx, api.CreateUserRequest{
			Name:     *name,
			Email:    *email,
			Password: *password,
			Role:     user.Role(*role),
		})
	}
}

func HandleUpdateUser(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "user-update")
		id := fs.Int("id", 0, "user id")
		name := fs.String("name", "", "new display name")
		email := fs.String("email", "", "new email")
		role := fs.String("role", "", "new role")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}

		var in api.EditUserRequest
		if fs.given("name") {
			in.Name = name
		}
		if fs.given("email") {
			in.Email = email
		}
		if fs.given("role") {
			r := user.Role(*role)
			in.Role = &r
		}

		return deps.Client.UpdateUser(ctx, *id, in)
	}
}

func HandleDeleteUser(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "user-delete")
		id := fs.Int("id", 0, "user id")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}
		if err := deps.Client.DeleteUser(ctx, *id); err != nil {
			return nil, err
		}
		return deletedOutput{Deleted: true, ID: *id}, nil
	}
}
