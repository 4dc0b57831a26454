package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/koopa0/finsight/internal/log"
)

const (
	// bucketIdleLifetime is how long an idle IP keeps its bucket.
	bucketIdleLifetime = 10 * time.Minute

	// sweepInterval paces removal of idle buckets. Sweeps run inline
	// under the limiter lock; there is no background goroutine.
	sweepInterval = 5 * time.Minute
)

// rateLimiter hands out one token bucket per client IP. A chat turn is
// expensive upstream (model plus relay calls), so the budget is
// enforced before a request reaches any handler.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	limit     rate.Limit
	burst     int
	nextSweep time.Time
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter creates a limiter refilling r tokens per second with
// the given burst size per IP.
func newRateLimiter(r float64, burst int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*ipBucket),
		limit:     rate.Limit(r),
		burst:     burst,
		nextSweep: time.Now().Add(sweepInterval),
	}
}

// allow reports whether a request from ip fits its budget, creating the
// bucket on first sight.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.After(rl.nextSweep) {
		rl.sweep(now)
	}

	b, ok := rl.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// sweep drops buckets idle past their lifetime. Callers hold rl.mu.
func (rl *rateLimiter) sweep(now time.Time) {
	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketIdleLifetime {
			delete(rl.buckets, ip)
		}
	}
	rl.nextSweep = now.Add(sweepInterval)
}

// rateLimitMiddleware rejects over-budget requests with 429 and a
// Retry-After hint before they reach the handlers.
func rateLimitMiddleware(rl *rateLimiter, trustProxy bool, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !rl.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address a request is limited under. Behind a
// trusted proxy the advertised client address wins; otherwise only the
// socket peer counts. A candidate must parse as an IP before it can
// become a limiter key.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, candidate := range proxyAdvertisedIPs(r) {
			if ip := net.ParseIP(candidate); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// proxyAdvertisedIPs lists the client addresses a reverse proxy put on
// the request: X-Real-IP first, then the first X-Forwarded-For hop.
func proxyAdvertisedIPs(r *http.Request) []string {
	var out []string
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		out = append(out, strings.TrimSpace(xri))
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		out = append(out, strings.TrimSpace(first))
	}
	return out
}
