package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set carried by an OASIP access token.
// The backend issues `sub` (the account email) and `role`. `name` is optional.
type Payload struct {
	// StandardClaims carries exp, iat, iss and sub at the top level of the token body.
	jwt.StandardClaims

	// Role is the account role: "ADMIN", "LECTURER" or "STUDENT".
	Role string `json:"role"`

	// Name is the display name, when the issuer includes one.
	Name string `json:"name,omitempty"`
}
