package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 30 * time.Minute
	limiterSweepTick = 10 * time.Minute
)

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet hands out one token bucket per key and forgets idle keys.
type limiterSet struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byKey map[string]*keyedLimiter
}

func newLimiterSet(ctx context.Context, requestsPerSecond float64, burst int) *limiterSet {
	ls := &limiterSet{
		rps:   rate.Limit(requestsPerSecond),
		burst: burst,
		byKey: make(map[string]*keyedLimiter),
	}
	go ls.sweep(ctx)
	return ls
}

func (ls *limiterSet) allow(key string) bool {
	ls.mu.Lock()
	kl, ok := ls.byKey[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(ls.rps, ls.burst)}
		ls.byKey[key] = kl
	}
	kl.lastAccess = time.Now()
	ls.mu.Unlock()

	return kl.limiter.Allow()
}

func (ls *limiterSet) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleTTL)
			ls.mu.Lock()
			for key, kl := range ls.byKey {
				if kl.lastAccess.Before(cutoff) {
					delete(ls.byKey, key)
				}
			}
			ls.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// RateLimitByIP applies per-IP rate limiting to the unauthenticated auth
// routes. It keys on r.RemoteAddr as rewritten by chi's RealIP.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	ls := newLimiterSet(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ls.allow(r.RemoteAddr) {
				writeProblem(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-tenant rate limiting. Requests without a tenant in
// context pass through.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	ls := newLimiterSet(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := TenantIDFromContext(r.Context())
			if ok && !ls.allow(tenantID) {
				writeProblem(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
