package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/diewo77/golf-referee/httpx"
	"github.com/diewo77/golf-referee/i18n"
)

// RateLimiter keeps one token bucket per key. Idle buckets are dropped
// after maxAge.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	maxAge time.Duration

	mu    sync.Mutex
	store map[string]*limiterEntry
	now   func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	updated time.Time
}

// NewRateLimiter allows reqPerSec sustained requests per key with the given burst.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:  rate.Limit(reqPerSec),
		burst:  burst,
		maxAge: 10 * time.Minute,
		store:  make(map[string]*limiterEntry),
		now:    time.Now,
	}
}

// Allow consumes one token for key.
func (l *RateLimiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.store[key]; ok {
		e.updated = now
		return e.limiter
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.store[key] = &limiterEntry{limiter: lim, updated: now}

	for k, e := range l.store {
		if now.Sub(e.updated) > l.maxAge {
			delete(l.store, k)
		}
	}
	return lim
}

// IPRateLimit limits requests per client IP.
func IPRateLimit(l *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusTooManyRequests, "too_many_attempts", nil)
					return
				}
				http.Error(w, i18n.T(LangFrom(r), "too_many_attempts"), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host of r.RemoteAddr. Behind a reverse proxy, put
// RealIP in front so the address is the client's rather than the proxy's.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ParseTrustedProxies reads CIDR ranges or single addresses.
func ParseTrustedProxies(list []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// RealIP rewrites r.RemoteAddr from X-Real-IP or X-Forwarded-For, but only
// when the connection comes from a trusted proxy. Headers sent by anyone
// else are ignored, so clients cannot pick their own rate limit bucket.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, port, err := net.SplitHostPort(r.RemoteAddr)
			if err == nil && isTrusted(trusted, host) {
				if ip, ok := forwardedFor(trusted, r.Header); ok {
					r2 := r.Clone(r.Context())
					r2.RemoteAddr = net.JoinHostPort(ip, port)
					r = r2
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isTrusted(trusted []netip.Prefix, host string) bool {
	a, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// forwardedFor picks the client address set by the proxy chain. In
// X-Forwarded-For the rightmost hop that is not a trusted proxy wins; the
// entries left of it may be forged.
func forwardedFor(trusted []netip.Prefix, h http.Header) (string, bool) {
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		if a, err := netip.ParseAddr(ip); err == nil {
			return a.Unmap().String(), true
		}
	}
	hops := strings.Split(strings.Join(h.Values("X-Forwarded-For"), ","), ",")
	var client string
	for i := len(hops) - 1; i >= 0; i-- {
		a, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = a.Unmap().String()
		if !isTrusted(trusted, client) {
			break
		}
	}
	return client, client != ""
}
