/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains an http.RoundTripper that logs the lifecycle of outbound API requests:
method, host, path, response status and latency. Each request is stamped with an
X-Request-ID header. Credentials and query values are never logged.
*/
package logx

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type loggingTransport struct {
	next http.RoundTripper
}

// Transport wraps next with request logging. A nil next means http.DefaultTransport.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, requestID)
	}

	logger := Logger().With().
		Str("component", "http_client").
		Str("request_id", requestID).
		Str("request_method", r.Method).
		Str("request_host", r.URL.Host).
		Str("request_path", r.URL.Path).
		Logger()

	t1 := time.Now()
	res, err := t.next.RoundTrip(r)
	if err != nil {
		logger.Warn().
			Err(err).
			Dur("latency", time.Since(t1)).
			Msg("Request failed")
		return nil, err
	}

	logEvent := logger.Debug()
	if res.StatusCode >= 500 {
		logEvent = logger.Error()
	} else if res.StatusCode >= 400 {
		logEvent = logger.Warn()
	}

	logEvent.
		Int("status", res.StatusCode).
		Int64("bytes", res.ContentLength).
		Dur("latency", time.Since(t1)).
		Msg("Request completed")

	return res, nil
}
