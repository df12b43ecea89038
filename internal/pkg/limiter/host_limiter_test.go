package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestGetLimiter_OnePerHost(t *testing.T) {
	l := NewHostRateLimiter(rate.Limit(1), 1)
	defer l.Close()

	a := l.GetLimiter("api.example.com")
	assert.Same(t, a, l.GetLimiter("api.example.com"))
	assert.NotSame(t, a, l.GetLimiter("files.example.com"))
}

func TestTransport_WaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	l := NewHostRateLimiter(rate.Every(time.Hour), 1)
	defer l.Close()
	client := &http.Client{Transport: l.Transport(nil)}

	res, err := client.Get(srv.URL)
	require.NoError(t, err, "burst allows the first request")
	res.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.Error(t, err, "second request cannot get a token before the deadline")
}

func TestCleanup_DropsIdleHosts(t *testing.T) {
	l := newHostRateLimiter(rate.Limit(1000), 1, 10*time.Millisecond)
	defer l.Close()

	l.GetLimiter("idle.example.com")

	assert.Eventually(t, func() bool {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return len(l.limits) == 0
	}, time.Second, 10*time.Millisecond)
}
