package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"student-profile-backend/internal/delivery/http/response"
	"student-profile-backend/pkg/logger"
	"student-profile-backend/pkg/redis"
	"student-profile-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc picks the bucket; defaults to the client IP.
	KeyFunc   func(*gin.Context) string
	KeyPrefix string
	// FailClosed rejects requests when Redis errors instead of falling back to memory.
	FailClosed bool
}

// INCR with TTL on first hit.
// KEYS[1] = counter key, ARGV[1] = TTL seconds. Returns {count, ttl}.
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

type windowCounter struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window counter kept in Redis when connected and in
// process memory otherwise.
type RateLimiter struct {
	cfg    RateLimitConfig
	client func() *goredis.Client
	audit  func() *security.SecurityLogger
	now    func() time.Time

	local     sync.Map // key -> *windowCounter
	sweepOnce sync.Once
}

// DefaultRateLimitConfig limits each client IP to limit requests per window.
// Non-positive values fall back to 100 per minute.
func DefaultRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rl:ip:",
		KeyFunc:   func(c *gin.Context) string { return c.ClientIP() },
	}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{
		cfg:    cfg,
		client: redis.Client,
		audit:  security.DefaultLogger,
		now:    time.Now,
	}
}

// Handler returns the gin middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.cfg.KeyPrefix + rl.cfg.KeyFunc(c)

		count, resetAt, err := rl.hit(c.Request.Context(), key)
		if err != nil {
			logger.Log.Warn("rate limiter store failed", "error", err, "request_id", response.RequestID(c))
			if rl.cfg.FailClosed {
				response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
				c.Abort()
				return
			}
			count, resetAt = rl.hitLocal(key)
		}

		remaining := rl.cfg.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

		if count > rl.cfg.Limit {
			retryAfter := int(resetAt.Sub(rl.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			if sl := rl.audit(); sl != nil {
				sl.LogRateLimitTriggered(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"), response.RequestID(c), c.FullPath())
			}
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// hit counts one request. Without Redis it goes straight to memory.
func (rl *RateLimiter) hit(ctx context.Context, key string) (int, time.Time, error) {
	client := rl.client()
	if client == nil {
		count, resetAt := rl.hitLocal(key)
		return count, resetAt, nil
	}

	result, err := client.Eval(ctx, rateLimitLuaScript, []string{key}, int(rl.cfg.Window.Seconds())).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}
	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)
	return int(count), rl.now().Add(time.Duration(ttl) * time.Second), nil
}

func (rl *RateLimiter) hitLocal(key string) (int, time.Time) {
	rl.sweepOnce.Do(rl.startSweeper)

	now := rl.now()
	v, _ := rl.local.LoadOrStore(key, &windowCounter{resetAt: now.Add(rl.cfg.Window)})
	wc := v.(*windowCounter)

	wc.mu.Lock()
	defer wc.mu.Unlock()
	if now.After(wc.resetAt) {
		wc.count = 0
		wc.resetAt = now.Add(rl.cfg.Window)
	}
	wc.count++
	return wc.count, wc.resetAt
}

// startSweeper drops expired in-memory windows every five minutes.
func (rl *RateLimiter) startSweeper() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			now := rl.now()
			rl.local.Range(func(key, value interface{}) bool {
				wc := value.(*windowCounter)
				wc.mu.Lock()
				if now.After(wc.resetAt) {
					rl.local.Delete(key)
				}
				wc.mu.Unlock()
				return true
			})
		}
	}()
}

// GlobalRateLimitMiddleware applies per-IP rate limiting to all routes
func GlobalRateLimitMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig(limit, window)).Handler()
}
