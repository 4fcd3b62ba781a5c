package http

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/log"
)

type bucket struct {
	tokens  int
	updated time.Time
}

// RateLimiter is a fixed-window counter per key held in process memory.
// Idle keys expire from the cache after one window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	rate    int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{buckets: cache.New(window, 2*window), rate: rate, window: window, now: time.Now}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.buckets.Get(key)
	b, _ := v.(*bucket)
	if !ok || b == nil || now.Sub(b.updated) > rl.window {
		rl.buckets.Set(key, &bucket{tokens: 1, updated: now}, rl.window)
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		return true
	}
	return false
}

// limitKey keeps raw client addresses out of the shared counter keys.
func limitKey(route, ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return route + ":" + hex.EncodeToString(sum[:8])
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimit limits each client per route to RateLimitPerMin requests a
// minute. Redis holds the counters when configured so every instance
// shares them; when Redis fails the local limiter decides.
func (h *Handler) RateLimit(name string) gin.HandlerFunc {
	limit := h.RateLimitPerMin
	local := NewRateLimiter(limit, time.Minute)
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		key := limitKey(name, ClientIP(c))
		allowed := false
		if h.Redis != nil {
			ok, err := h.Redis.Allow(c.Request.Context(), key, limit, time.Minute)
			if err == nil {
				allowed = ok
			} else {
				log.Ctx(c.Request.Context()).Warn("rate limit backend", zap.Error(err))
				allowed = local.Allow(key)
			}
		} else {
			allowed = local.Allow(key)
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
