/*
Package session holds the signed-in state of the client.

The state is derived from the claims of the stored access token and nothing else:
Derive is a pure function of the claims, Store publishes the current value to
subscribers and Provider is its only writer. A malformed or absent token is an
anonymous session, never an error.
*/
package session

import (
	"oasip/internal/app/user"
	"oasip/internal/pkg/auth/jwt"
)

// Status is the discriminant of State.
type Status string

const (
	StatusLoading       Status = "loading"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// State is the derived view of who is signed in.
// IsGuest is true exactly when User is nil.
type State struct {
	Status Status     `json:"status"`
	User   *user.User `json:"user"`

	IsAdmin    bool `json:"isAdmin"`
	IsLecturer bool `json:"isLecturer"`
	IsStudent  bool `json:"isStudent"`
	IsGuest    bool `json:"isGuest"`
}

// DefaultState is the anonymous state.
func DefaultState() State {
	return State{Status: StatusAnonymous, IsGuest: true}
}

// loadingState is the state before the stored token has been read.
func loadingState() State {
	s := DefaultState()
	s.Status = StatusLoading
	return s
}

// Derive computes the state for claims. nil claims give DefaultState.
// An unrecognized role yields an authenticated state with every role flag false.
func Derive(claims *jwt.Payload) State {
	if claims == nil {
		return DefaultState()
	}

	role := user.Role(claims.Role)
	name := claims.Name
	if name == "" {
		name = claims.Subject
	}

	return State{
		Status: StatusAuthenticated,
		User: &user.User{
			ID:    claims.Subject,
			Name:  name,
			Email: claims.Subject,
			Role:  role,
			Roles: []user.Role{role},
		},
		IsAdmin:    role == user.RoleAdmin,
		IsLecturer: role == user.RoleLecturer,
		IsStudent:  role == user.RoleStudent,
		IsGuest:    false,
	}
}
