package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/restaurant-reservation/internal/config"
)

// limiterScript refills the bucket by whole intervals, takes one token
// when available and returns {allowed, remaining, retry_ms}.
var limiterScript = redis.NewScript(`
local b = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local left, at = tonumber(b[1]) or cap, tonumber(b[2]) or now

if every > 0 and refill > 0 and now > at then
	local n = math.floor((now - at) / every)
	if n > 0 then
		left = math.min(cap, left + n * refill)
		at = at + n * every
	end
end

local ok, wait = 0, 0
if left >= 1 then
	ok, left = 1, left - 1
else
	wait = math.max(0, every - (now - at))
end

redis.call('HSET', KEYS[1], 'tokens', left, 'last_refill_ms', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, left, wait}
`)

// bucketState is the script's answer for one request.
type bucketState struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketState, error) {
	res, err := limiterScript.Run(ctx, rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Slice()
	if err != nil {
		return bucketState{}, err
	}
	if len(res) != 3 {
		return bucketState{}, fmt.Errorf("ratelimit: unexpected script result %v", res)
	}
	return bucketState{
		allowed:   asInt64(res[0]) == 1,
		remaining: asInt64(res[1]),
		retry:     time.Duration(asInt64(res[2])) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per key with a token bucket kept in
// Redis, so every instance shares one budget.  When Redis errors the
// request is let through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			st, err := take(c.Request().Context(), rdb, cfg, key)
			if err != nil {
				if cfg.Debug {
					log.Warn().Err(err).Str("key", key).Msg("ratelimit: skipped")
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if st.allowed {
				return next(c)
			}

			secs := int(math.Ceil(st.retry.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Info().Str("key", key).Dur("retry", st.retry).Msg("ratelimit: blocked")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":     "Too many requests",
				"retry_after": secs,
			})
		}
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "route":
		parts = append(parts, "route", route)
	default: // "ip_route"
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}
