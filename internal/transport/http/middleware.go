package http

import (
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

// pruneThreshold is the limiter-map size past which stale entries get
// evicted on access.
const (
	pruneThreshold = 1024
	pruneAfter     = 10 * time.Minute
)

// ipLimiters hands out one token bucket per client IP for the plain HTTP
// surface. This is separate from the websocket event limiter: it only
// shields heartbeat and asset routes from hammering.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      rate.Limit
	burst    int
}

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newIPLimiters(rps float64, burst int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*ipLimiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipLimiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.limiters[key]; ok {
		entry.lastAccess = time.Now()
		return entry.limiter
	}

	if len(l.limiters) >= pruneThreshold {
		l.pruneLocked()
	}

	entry := &ipLimiterEntry{
		limiter:    rate.NewLimiter(l.rps, l.burst),
		lastAccess: time.Now(),
	}
	l.limiters[key] = entry
	return entry.limiter
}

func (l *ipLimiters) pruneLocked() {
	cutoff := time.Now().Add(-pruneAfter)
	for key, entry := range l.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

// RateLimitMiddleware throttles HTTP requests per client IP.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiters := newIPLimiters(rps, burst)
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(stdhttp.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
