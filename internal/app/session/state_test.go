package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oasip/internal/app/user"
	"oasip/internal/pkg/auth/jwt"
)

func claimsFor(email, role string) *jwt.Payload {
	p := &jwt.Payload{Role: role}
	p.Subject = email
	return p
}

func TestDerive_NilIsDefaultAnonymous(t *testing.T) {
	assert.Equal(t, State{Status: StatusAnonymous, IsGuest: true}, Derive(nil))
	assert.Equal(t, DefaultState(), Derive(nil))
}

func TestDerive_RoleFlags(t *testing.T) {
	tests := []struct {
		role                     string
		admin, lecturer, student bool
	}{
		{"ADMIN", true, false, false},
		{"LECTURER", false, true, false},
		{"STUDENT", false, false, true},
		{"WHAT", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			s := Derive(claimsFor("a@b.com", tt.role))

			assert.Equal(t, StatusAuthenticated, s.Status)
			assert.Equal(t, tt.admin, s.IsAdmin)
			assert.Equal(t, tt.lecturer, s.IsLecturer)
			assert.Equal(t, tt.student, s.IsStudent)
			assert.False(t, s.IsGuest)
			assert.NotNil(t, s.User)
		})
	}
}

func TestDerive_UserMapping(t *testing.T) {
	s := Derive(claimsFor("a@b.com", "STUDENT"))
	assert.Equal(t, &user.User{
		ID:    "a@b.com",
		Name:  "a@b.com",
		Email: "a@b.com",
		Role:  user.RoleStudent,
		Roles: []user.Role{user.RoleStudent},
	}, s.User)

	named := claimsFor("a@b.com", "ADMIN")
	named.Name = "Alice"
	assert.Equal(t, "Alice", Derive(named).User.Name)
}

func TestDerive_Idempotent(t *testing.T) {
	for _, c := range []*jwt.Payload{claimsFor("a@b.com", "ADMIN"), claimsFor("x@y.com", "nope"), nil} {
		first := Derive(c)
		_ = Derive(nil)
		assert.Equal(t, first, Derive(c))
	}
}

func TestStore_SubscribeOrderAndUnsubscribe(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StatusLoading, s.Get().Status)
	assert.True(t, s.Get().IsGuest)

	var calls []string
	unsubA := s.Subscribe(func(st State) { calls = append(calls, "a:"+string(st.Status)) })
	s.Subscribe(func(st State) {
		// Reading from a subscriber must not deadlock.
		calls = append(calls, "b:"+string(s.Get().Status))
	})

	s.set(Derive(claimsFor("a@b.com", "ADMIN")))
	unsubA()
	unsubA()
	s.set(DefaultState())

	assert.Equal(t, []string{"a:authenticated", "b:authenticated", "b:anonymous"}, calls)

	s.reset()
	s.set(DefaultState())
	assert.Len(t, calls, 3)
}
