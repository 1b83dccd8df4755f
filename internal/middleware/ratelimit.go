package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitAlgorithm selects how requests are counted
type RateLimitAlgorithm string

const (
	TokenBucket RateLimitAlgorithm = "token_bucket"
	FixedWindow RateLimitAlgorithm = "fixed_window"
)

// RateLimitType selects what a limit is keyed on
type RateLimitType string

const (
	RateLimitByIP       RateLimitType = "ip"
	RateLimitByUser     RateLimitType = "user"
	RateLimitByEndpoint RateLimitType = "endpoint"
)

// RateLimitConfig is one limit
type RateLimitConfig struct {
	Limit     int
	Window    int // seconds
	Algorithm RateLimitAlgorithm
	Type      RateLimitType
}

// RateLimitResult is the outcome of one Allow call
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   int64 // unix seconds
	Limit     int
}

// RateLimiter counts requests against a limit
type RateLimiter interface {
	Allow(ctx context.Context, key string, config *RateLimitConfig) (*RateLimitResult, error)
}

// RedisRateLimiter keeps counters in redis so limits hold across API instances
type RedisRateLimiter struct {
	redis *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{redis: client}
}

var tokenBucketScript = redis.NewScript(`
	local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'last_update')
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local tokens = tonumber(bucket[1]) or capacity
	local last_update = tonumber(bucket[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', KEYS[1], math.ceil(capacity / rate) + 1)

	return {allowed, math.floor(tokens), capacity}
`)

var fixedWindowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
	end
	local limit = tonumber(ARGV[1])
	local allowed = 0
	if current <= limit then
		allowed = 1
	end
	return {allowed, math.max(0, limit - current), limit}
`)

// Allow counts one request for key
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, config *RateLimitConfig) (*RateLimitResult, error) {
	if config.Limit <= 0 || config.Window <= 0 {
		return &RateLimitResult{Allowed: true, Limit: config.Limit}, nil
	}
	now := time.Now().Unix()

	if config.Algorithm == FixedWindow {
		window := now / int64(config.Window)
		windowKey := fmt.Sprintf("wt:ratelimit:fixed:%s:%d", key, window)
		values, err := fixedWindowScript.Run(ctx, r.redis, []string{windowKey}, config.Limit, config.Window+1).Int64Slice()
		if err != nil {
			return nil, err
		}
		return &RateLimitResult{
			Allowed:   values[0] == 1,
			Remaining: int(values[1]),
			ResetAt:   (window + 1) * int64(config.Window),
			Limit:     int(values[2]),
		}, nil
	}

	bucketKey := fmt.Sprintf("wt:ratelimit:token:%s", key)
	ratePerSecond := float64(config.Limit) / float64(config.Window)
	values, err := tokenBucketScript.Run(ctx, r.redis, []string{bucketKey}, config.Limit, ratePerSecond, now).Int64Slice()
	if err != nil {
		return nil, err
	}
	return &RateLimitResult{
		Allowed:   values[0] == 1,
		Remaining: int(values[1]),
		ResetAt:   now + int64(config.Window),
		Limit:     int(values[2]),
	}, nil
}

// RateLimitGroup applies the first rule whose path prefix matches, else the default
type RateLimitGroup struct {
	limiter       RateLimiter
	defaultConfig *RateLimitConfig
	prefixes      []string
	configs       map[string]*RateLimitConfig
}

func NewRateLimitGroup(limiter RateLimiter, defaultConfig *RateLimitConfig) *RateLimitGroup {
	return &RateLimitGroup{
		limiter:       limiter,
		defaultConfig: defaultConfig,
		configs:       make(map[string]*RateLimitConfig),
	}
}

// AddSpecificConfig registers config for every path starting with prefix
func (g *RateLimitGroup) AddSpecificConfig(prefix string, config *RateLimitConfig) {
	if _, ok := g.configs[prefix]; !ok {
		g.prefixes = append(g.prefixes, prefix)
	}
	g.configs[prefix] = config
}

func (g *RateLimitGroup) configFor(path string) *RateLimitConfig {
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return g.configs[prefix]
		}
	}
	return g.defaultConfig
}

// Middleware fails open: a limiter error lets the request through
func (g *RateLimitGroup) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		config := g.configFor(c.Request.URL.Path)
		if config == nil {
			c.Next()
			return
		}

		result, err := g.limiter.Allow(c.Request.Context(), rateLimitKey(c, config), config)
		if err != nil {
			log.Printf("[RateLimit] Limiter error, allowing request: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": result.ResetAt - time.Now().Unix(),
			})
			return
		}
		c.Next()
	}
}

// rateLimitKey keys user limits on the employee when Auth already ran, on the client IP otherwise
func rateLimitKey(c *gin.Context, config *RateLimitConfig) string {
	switch config.Type {
	case RateLimitByUser:
		if id := c.GetString(ContextEmployeeID); id != "" {
			return "user:" + id
		}
		return "ip:" + clientIP(c)
	case RateLimitByEndpoint:
		return fmt.Sprintf("endpoint:%s:%s", c.Request.Method, c.Request.URL.Path)
	default:
		return "ip:" + clientIP(c)
	}
}

func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := c.GetHeader("X-Real-Ip"); xri != "" {
		return xri
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
