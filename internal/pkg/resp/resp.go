/*
Package resp interprets HTTP responses from the OASIP backend.

It decodes success bodies, and maps every other status to a typed *errs.CustomError,
carrying the server's message and field validation details when present.
*/
package resp

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"oasip/internal/pkg/errs"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// ErrorResponse is the backend's error body.
type ErrorResponse struct {
	Timestamp string `json:"timestamp,omitempty"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Path      string `json:"path,omitempty"`

	// Errors maps field name to validation message on 400 responses.
	Errors map[string]string `json:"errors,omitempty"`
}

// Expect returns nil when res has one of the accepted statuses. Otherwise it consumes
// and closes the body and returns the matching typed error.
func Expect(res *http.Response, accepted ...int) error {
	for _, status := range accepted {
		if res.StatusCode == status {
			return nil
		}
	}
	return FromResponse(res)
}

// DecodeJSON decodes the body of res into dst and closes it.
func DecodeJSON(res *http.Response, dst any) error {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return errs.Wrap(errs.ErrDecodeFailed, err).WithStatus(res.StatusCode)
	}
	return nil
}

// Discard drains and closes the body so the connection can be reused.
func Discard(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))
	_ = res.Body.Close()
}

// FromResponse maps a non-success response to a typed error and closes its body.
func FromResponse(res *http.Response) *errs.CustomError {
	_, customErr := ReadError(res)
	return customErr
}

// ReadError is FromResponse that also returns the parsed error body, for callers
// that hand the server's payload to callbacks.
func ReadError(res *http.Response) (*ErrorResponse, *errs.CustomError) {
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	parsed := parseErrorBody(body)
	if parsed.Status == 0 {
		parsed.Status = res.StatusCode
	}

	var customErr *errs.CustomError
	switch status := res.StatusCode; {
	case status == http.StatusBadRequest:
		customErr = errs.NewError(errs.ErrBadRequest).WithDetails(parsed.Errors)
	case status == http.StatusUnauthorized:
		customErr = errs.NewError(errs.ErrUnauthorized)
	case status == http.StatusForbidden:
		customErr = errs.NewError(errs.ErrForbidden)
	case status == http.StatusNotFound:
		customErr = errs.NewError(errs.ErrNotFound)
	case status == http.StatusConflict:
		customErr = errs.NewError(errs.ErrConflict)
	case status >= 500:
		customErr = errs.NewError(errs.ErrServer, status)
	default:
		customErr = errs.NewError(errs.ErrUnexpectedStatus, status)
	}

	return &parsed, customErr.WithStatus(res.StatusCode).WithMessage(parsed.Message)
}

func parseErrorBody(body []byte) ErrorResponse {
	var parsed ErrorResponse
	if len(body) == 0 {
		return parsed
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Plain-text bodies are used as the message when short enough to be one.
		text := strings.TrimSpace(string(body))
		if len(text) <= 200 && !strings.HasPrefix(text, "<") {
			parsed.Message = text
		}
	}
	return parsed
}

// Filename extracts the filename parameter of the Content-Disposition header.
func Filename(res *http.Response) (string, error) {
	header := res.Header.Get("Content-Disposition")
	if header == "" {
		return "", errors.New("response has no Content-Disposition header")
	}

	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name, nil
		}
	}

	// The backend writes an unquoted value, which may contain characters
	// ParseMediaType rejects; fall back to splitting on the parameter name.
	if _, after, ok := strings.Cut(header, "filename="); ok {
		name := strings.Trim(strings.TrimSpace(strings.SplitN(after, ";", 2)[0]), `"`)
		if name != "" {
			return name, nil
		}
	}

	return "", errors.New("Content-Disposition has no filename")
}
