package handler

import (
	"context"

	"oasip/internal/app/api"
	"oasip/internal/pkg/logx"
	"oasip/internal/pkg/resp"
)

// HandleWhoAmI prints the current session state.
func HandleWhoAmI(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		if err := newFlags(deps, "whoami").parse(args); err != nil {
			return nil, err
		}
		return deps.Session.State(), nil
	}
}

// HandleLogin signs in and prints the new session state.
func HandleLogin(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "login")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.parse(args); err != nil {
			return nil, err
		}

		_, err := deps.Session.Login(ctx, api.LoginRequest{Email: *email, Password: *password}, api.LoginOptions{
			OnUnauthorized: func(body *resp.ErrorResponse) {
				logx.Warn("Login rejected: wrong password", "email", *email)
			},
			OnNotFound: func(body *resp.ErrorResponse) {
				logx.Warn("Login rejected: unknown account", "email", *email)
			},
		})
		if err != nil {
			return nil, err
		}

		logx.Info("Signed in", "email", *email)
		return deps.Session.State(), nil
	}
}

// HandleLogout signs out. A failed logout keeps the session.
func HandleLogout(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		if err := newFlags(deps, "logout").parse(args); err != nil {
			return nil, err
		}
		if err := deps.Session.Logout(ctx); err != nil {
			return nil, err
		}
		return deps.Session.State(), nil
	}
}

type matchOutput struct {
	Match bool `json:"match"`
}

// HandleMatch asks the server whether a password belongs to an account.
func HandleMatch(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "match")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "password to check")
		if err := fs.parse(args); err != nil {
			return nil, err
		}

		ok, err := deps.Client.Match(ctx, api.MatchRequest{Email: *email, Password: *password})
		if err != nil {
			return nil, err
		}
		return matchOutput{Match: ok}, nil
	}
}
