package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, Role("GUEST").IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestUser_HasRole(t *testing.T) {
	u := &User{ID: "a@b.com", Role: RoleLecturer, Roles: []Role{RoleLecturer}}
	assert.True(t, u.HasRole(RoleLecturer))
	assert.False(t, u.HasRole(RoleAdmin))

	var none *User
	assert.False(t, none.HasRole(RoleAdmin))
}
