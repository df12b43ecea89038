package resp

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasip/internal/pkg/errs"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFromResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		code   int
	}{
		{http.StatusBadRequest, errs.ErrBadRequest},
		{http.StatusUnauthorized, errs.ErrUnauthorized},
		{http.StatusForbidden, errs.ErrForbidden},
		{http.StatusNotFound, errs.ErrNotFound},
		{http.StatusConflict, errs.ErrConflict},
		{http.StatusInternalServerError, errs.ErrServer},
		{http.StatusBadGateway, errs.ErrServer},
		{http.StatusTeapot, errs.ErrUnexpectedStatus},
		{http.StatusFound, errs.ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromResponse(response(tt.status, ""))
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestFromResponse_BadRequestDetails(t *testing.T) {
	body := `{"status":400,"message":"Validation failed","errors":{"eventStartTime":"overlaps"}}`
	err := FromResponse(response(http.StatusBadRequest, body))

	assert.Equal(t, errs.ErrBadRequest, err.Code)
	assert.Equal(t, "Validation failed", err.Message)
	assert.Equal(t, map[string]string{"eventStartTime": "overlaps"}, err.Details)
}

func TestFromResponse_PlainTextMessage(t *testing.T) {
	err := FromResponse(response(http.StatusNotFound, "File not found"))
	assert.Equal(t, "File not found", err.Message)

	err = FromResponse(response(http.StatusInternalServerError, "<html>oops</html>"))
	assert.Equal(t, "Server error (HTTP 500).", err.Message)
}

func TestExpect(t *testing.T) {
	assert.NoError(t, Expect(response(http.StatusCreated, "{}"), http.StatusOK, http.StatusCreated))

	err := Expect(response(http.StatusNoContent, ""), http.StatusOK)
	assert.True(t, errs.Is(err, errs.ErrUnexpectedStatus))
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, DecodeJSON(response(http.StatusOK, `{"accessToken":"T1"}`), &dst))
	assert.Equal(t, "T1", dst.AccessToken)

	err := DecodeJSON(response(http.StatusOK, `not json`), &dst)
	assert.True(t, errs.Is(err, errs.ErrDecodeFailed))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`inline; filename=report.pdf`, "report.pdf"},
		{`attachment; filename="quoted name.txt"`, "quoted name.txt"},
		{`inline; filename=weird(1).png`, "weird(1).png"},
	}
	for _, tt := range tests {
		res := response(http.StatusOK, "")
		res.Header.Set("Content-Disposition", tt.header)
		got, err := Filename(res)
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, got)
	}

	_, err := Filename(response(http.StatusOK, ""))
	assert.Error(t, err)
}

func TestReadError_ReturnsBody(t *testing.T) {
	body, err := ReadError(response(http.StatusNotFound, `{"message":"User not found","path":"/api/auth/login"}`))

	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "/api/auth/login", body.Path)
	assert.Equal(t, "User not found", err.Message)
	assert.Equal(t, errs.ErrNotFound, err.Code)
}
