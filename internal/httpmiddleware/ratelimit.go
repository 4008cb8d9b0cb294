package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter enforces a per-client request budget, refilled at a
// fixed per-minute rate. State lives in process memory, so limits are
// per instance.
type RateLimiter struct {
	perMinute int
	mu        sync.Mutex
	clients   map[string]*clientBudget
}

type clientBudget struct {
	remaining int
	refilled  time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per
// client, with a burst of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientBudget),
	}
}

// Middleware returns a gin handler enforcing the limit per client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !l.take(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) take(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.clients[key]
	if !ok {
		l.clients[key] = &clientBudget{remaining: l.perMinute - 1, refilled: now}
		return true
	}

	refill := int(now.Sub(b.refilled).Minutes() * float64(l.perMinute))
	if refill > 0 {
		b.remaining += refill
		if b.remaining > l.perMinute {
			b.remaining = l.perMinute
		}
		b.refilled = now
	}

	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}
