package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"trailer-booking/config"
	"trailer-booking/internal/delivery/http/response"
	"trailer-booking/internal/domain"
	"trailer-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis (default: "rl:ip:")
	KeyPrefix string
	// Whether to fail closed (reject) when Redis is unavailable
	FailClosed bool
	// Redis holds the counters; nil counts in process memory
	Redis *goredis.Client
}

// rateLimitEntry tracks request count for a key (in-memory fallback)
type rateLimitEntry struct {
	count   int
	resetAt time.Time
	mu      sync.Mutex
}

// memoryCounters is the in-process fallback of one middleware instance.
// A sweeper goroutine runs only while there are entries to expire.
type memoryCounters struct {
	entries  sync.Map
	interval time.Duration

	mu       sync.Mutex
	sweeping bool
}

func newMemoryCounters(window time.Duration) *memoryCounters {
	interval := 5 * window
	if interval < time.Minute {
		interval = time.Minute
	}
	return &memoryCounters{interval: interval}
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// GlobalRateLimitConfig limits every route per client IP
func GlobalRateLimitConfig(cfg *config.Config, client *goredis.Client) RateLimitConfig {
	return RateLimitConfig{
		Limit:      cfg.RateLimitGlobalThreshold,
		Window:     time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		KeyPrefix:  "rl:ip:",
		FailClosed: false, // Fail open by default for availability
		KeyFunc:    clientIPKey,
		Redis:      client,
	}
}

// SubmitRateLimitConfig is the stricter limit for routes that reach the booking backend
func SubmitRateLimitConfig(cfg *config.Config, client *goredis.Client) RateLimitConfig {
	return RateLimitConfig{
		Limit:      cfg.RateLimitSubmitThreshold,
		Window:     time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		KeyPrefix:  "rl:submit:",
		FailClosed: false,
		KeyFunc:    clientIPKey,
		Redis:      client,
	}
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimitMiddleware creates a rate limiting middleware with the given config.
// Counters live in Redis when a client is set; Redis errors fall back to
// memory unless FailClosed. A non-positive limit disables the middleware.
func RateLimitMiddleware(rl RateLimitConfig) gin.HandlerFunc {
	if rl.Limit <= 0 || rl.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if rl.KeyFunc == nil {
		rl.KeyFunc = clientIPKey
	}
	counters := newMemoryCounters(rl.Window)

	return func(c *gin.Context) {
		fullKey := rl.KeyPrefix + rl.KeyFunc(c)
		now := time.Now()

		var count int
		var resetAt time.Time
		var err error

		if rl.Redis != nil {
			count, resetAt, err = checkRateLimitRedis(c.Request.Context(), rl.Redis, fullKey, rl)
			if err != nil {
				logRateLimitError(c, err)
				if rl.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					c.Abort()
					return
				}
				count, resetAt = counters.hit(fullKey, rl.Window, now)
			}
		} else {
			count, resetAt = counters.hit(fullKey, rl.Window, now)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > rl.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logRateLimitTriggered(c, rl)

			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.Limit-count))
		c.Next()
	}
}

// checkRateLimitRedis checks rate limit using Redis with atomic Lua script
func checkRateLimitRedis(ctx context.Context, client *goredis.Client, key string, rl RateLimitConfig) (int, time.Time, error) {
	ttlSeconds := int(rl.Window.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := client.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	// Parse result [count, ttl]
	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

// hit counts one request against key
func (m *memoryCounters) hit(key string, window time.Duration, now time.Time) (int, time.Time) {
	entryI, loaded := m.entries.LoadOrStore(key, &rateLimitEntry{resetAt: now.Add(window)})
	if !loaded {
		m.startSweeper()
	}
	entry := entryI.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(window)
	}
	entry.count++

	return entry.count, entry.resetAt
}

func (m *memoryCounters) startSweeper() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sweeping {
		return
	}
	m.sweeping = true
	go m.sweep()
}

// sweep drops expired entries every interval and exits once none are left
func (m *memoryCounters) sweep() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for now := range ticker.C {
		m.mu.Lock()
		if m.dropExpired(now) == 0 {
			m.sweeping = false
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
	}
}

// dropExpired deletes entries whose window has passed and returns how many remain
func (m *memoryCounters) dropExpired(now time.Time) int {
	remaining := 0
	m.entries.Range(func(key, value interface{}) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		if now.After(entry.resetAt) {
			m.entries.Delete(key)
		} else {
			remaining++
		}
		entry.mu.Unlock()
		return true
	})
	return remaining
}

// logRateLimitTriggered logs when rate limiting is triggered
func logRateLimitTriggered(c *gin.Context, rl RateLimitConfig) {
	logger.Log.Warn("Rate limit triggered",
		"client_ip", c.ClientIP(),
		"path", c.FullPath(),
		"prefix", rl.KeyPrefix,
		"limit", rl.Limit,
		"request_id", c.GetString(string(domain.KeyRequestID)),
	)
}

// logRateLimitError logs Redis errors
func logRateLimitError(c *gin.Context, err error) {
	logger.Log.Error("Rate limit store failed",
		"client_ip", c.ClientIP(),
		"path", c.FullPath(),
		"error", err,
	)
}
