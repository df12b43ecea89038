package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasip/internal/pkg/errs"
)

const testSecret = "test-secret"

func TestDecodeToken_ReadsClaimsWithoutKey(t *testing.T) {
	payload := &Payload{Role: "ADMIN", Name: "Ada"}
	payload.Subject = "ada@example.com"

	token, err := GenerateToken(payload, testSecret, time.Minute)
	require.NoError(t, err)

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", decoded.Subject)
	assert.Equal(t, "ADMIN", decoded.Role)
	assert.Equal(t, "Ada", decoded.Name)
	assert.Equal(t, TokenIssuer, decoded.Issuer)
}

func TestDecodeToken_ExpiredTokenStillDecodes(t *testing.T) {
	payload := &Payload{Role: "STUDENT"}
	payload.Subject = "s@example.com"

	token, err := GenerateToken(payload, testSecret, -time.Minute)
	require.NoError(t, err)

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "STUDENT", decoded.Role)
}

func TestDecodeToken_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "whitespace", token: "   "},
		{name: "opaque string", token: "T1"},
		{name: "bad segments", token: "a.b.c"},
		{name: "not base64 payload", token: "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeToken(tt.token)
			assert.Nil(t, decoded)
			assert.True(t, errs.Is(err, errs.ErrTokenDecode))
		})
	}
}

func TestParseToken_VerifiesSignature(t *testing.T) {
	payload := &Payload{Role: "LECTURER"}
	payload.Subject = "l@example.com"

	token, err := GenerateToken(payload, testSecret, time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)

	parsed, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "LECTURER", parsed.Role)
}
