/*
Package user contains the identity types shared by the session and the API client.

It defines the signed-in User derived from token claims and the Role enumeration used
for role flags and user management requests.
*/
package user

// Role is an OASIP account role as issued in the token's `role` claim.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleLecturer Role = "LECTURER"
	RoleStudent  Role = "STUDENT"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleLecturer, RoleStudent}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return true
	default:
		return false
	}
}

// User is the identity of the signed-in account.
type User struct {
	// ID is the token subject.
	ID string `json:"id"`

	// Name is the display name, falling back to the subject.
	Name string `json:"name"`

	// Email is the account email (the backend uses it as subject).
	Email string `json:"email"`

	// Role is the primary role.
	Role Role `json:"role"`

	// Roles is the set of roles held; currently always the primary role alone.
	Roles []Role `json:"roles"`
}

// HasRole reports whether u holds role.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
