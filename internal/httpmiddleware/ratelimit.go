package httpmiddleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key.
type Limiter struct {
	limit rate.Limit
	burst int
	mu    sync.Mutex
	state map[string]*rate.Limiter
}

// NewLimiter allows perMinute requests per client with bursts of burst.
// A non-positive perMinute disables limiting.
func NewLimiter(perMinute, burst int) *Limiter {
	if burst <= 0 {
		burst = perMinute
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	return &Limiter{limit: limit, burst: burst, state: make(map[string]*rate.Limiter)}
}

// GinMiddleware returns gin handler enforcing per-IP limits.
func (l *Limiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.state[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.state[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// SecurityHeaders sets conservative response headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
