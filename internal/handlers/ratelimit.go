package handlers

import (
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/scmmishra/linklog/internal/capture"
)

// RateLimiter keeps one token bucket per client IP. The table is an LRU so
// memory stays bounded; evicted clients start with a full bucket.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	r        rate.Limit
	b        int
}

func NewRateLimiter(perSecond float64, burst, size int) (*RateLimiter, error) {
	c, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{limiters: c, r: rate.Limit(perSecond), b: burst}, nil
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters.Get(ip)
	if !ok {
		l = rate.NewLimiter(rl.r, rl.b)
		rl.limiters.Add(ip, l)
	}
	rl.mu.Unlock()
	return l.Allow()
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(capture.ClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			jsonError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
