package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"oasip/internal/pkg/errs"
)

const (
	// AccessTokenExpiration is the lifetime of access tokens minted by GenerateToken callers by default.
	AccessTokenExpiration = 30 * time.Minute

	// RefreshTokenExpiration is the lifetime of refresh tokens minted by GenerateToken callers by default.
	RefreshTokenExpiration = 24 * time.Hour

	// TokenIssuer identifies tokens minted locally.
	TokenIssuer = "OASIP"
)

// DecodeToken parses the claims of tokenString without verifying its signature.
// The client never holds the signing key, so claims are informational: the backend
// remains the authority and answers 401 for anything it does not accept.
// Any failure yields an errs.ErrTokenDecode error; DecodeToken never panics.
func DecodeToken(tokenString string) (payload *Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = errs.NewError(errs.ErrTokenDecode)
		}
	}()

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, errs.Wrap(errs.ErrTokenDecode, errors.New("empty token"))
	}

	claims := &Payload{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, errs.Wrap(errs.ErrTokenDecode, err)
	}

	if claims.Subject == "" {
		return nil, errs.Wrap(errs.ErrTokenDecode, errors.New("token has no subject"))
	}

	return claims, nil
}

// GenerateToken creates and signs an HS256 token for payload, valid for duration.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.ExpiresAt = now.Add(duration).Unix()
	payload.IssuedAt = now.Unix()
	payload.Issuer = TokenIssuer

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses tokenString and verifies its HMAC signature and expiry.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}
