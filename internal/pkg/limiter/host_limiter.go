/*
Package limiter throttles outbound API requests per destination host.

It keeps one token bucket (rate.Limiter) per host and a cleanup goroutine that drops
idle buckets. The limiter plugs into the HTTP client as a RoundTripper: requests wait
for a token or fail with their context's error.
*/
package limiter

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"oasip/internal/pkg/logx"
)

// HostRateLimiter rate-limits requests keyed by URL host.
type HostRateLimiter struct {
	// mu protects the limits map.
	mu sync.RWMutex

	// limits maps host to its token bucket.
	limits map[string]*rate.Limiter

	// r is the number of events allowed per second.
	r rate.Limit

	// b is the burst size.
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHostRateLimiter creates a limiter with rate r and burst b and starts its cleanup loop.
// Call Close to stop the loop.
func NewHostRateLimiter(r rate.Limit, b int) *HostRateLimiter {
	return newHostRateLimiter(r, b, 3*time.Minute)
}

func newHostRateLimiter(r rate.Limit, b int, cleanupEvery time.Duration) *HostRateLimiter {
	l := &HostRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go l.cleanUpHosts(cleanupEvery)

	return l
}

// GetLimiter returns the bucket for host, creating it on first use.
func (l *HostRateLimiter) GetLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[host]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[host]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[host] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *HostRateLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// cleanUpHosts periodically drops buckets that are full, i.e. idle hosts.
func (l *HostRateLimiter) cleanUpHosts(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			count := 0
			for host, limiter := range l.limits {
				if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
					delete(l.limits, host)
					count++
				}
			}
			remaining := len(l.limits)
			l.mu.Unlock()
			logx.Debug("Rate limiter cleanup", "removed", count, "remaining", remaining)
		}
	}
}

type limitedTransport struct {
	limiter *HostRateLimiter
	next    http.RoundTripper
}

// Transport wraps next so each request first waits for its host's token.
func (l *HostRateLimiter) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &limitedTransport{limiter: l, next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *limitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.GetLimiter(r.URL.Host).Wait(r.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(r)
}
