package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hostel-booking/internal/config"
)

// takeToken refills the bucket in KEYS[1] for the whole intervals elapsed
// since its last refill and then tries to take one token.
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed (0|1), tokens left, ms until the next refill}.
var takeToken = redis.NewScript(`
local now, cap, per, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(b[1]), tonumber(b[2])
if tokens == nil or ts == nil then
  tokens, ts = cap, now
end
local n = math.floor(math.max(0, now - ts) / every)
if n > 0 then
  tokens = math.min(cap, tokens + n * per)
  ts = ts + n * every
end
local ok, wait = 0, 0
if tokens > 0 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// bucketState is the decoded reply of takeToken.
type bucketState struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

func parseBucketReply(v interface{}) (bucketState, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketState{}, false
	}
	var n [3]int64
	for i, x := range arr {
		iv, ok := x.(int64)
		if !ok {
			return bucketState{}, false
		}
		n[i] = iv
	}
	return bucketState{allowed: n[0] == 1, remaining: n[1], wait: time.Duration(n[2]) * time.Millisecond}, true
}

// NewTokenBucket limits requests per key with a Redis token bucket.  It
// fails open: when Redis is missing or errors, requests pass through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = slog.Default()
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}
	ttl := int64(cfg.TTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			reply, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, interval.Milliseconds(), ttl).Result()
			if err != nil {
				if cfg.Debug {
					log.Warn("ratelimit: redis error", "key", key, "error", err)
				}
				return next(c)
			}
			st, ok := parseBucketReply(reply)
			if !ok {
				if cfg.Debug {
					log.Warn("ratelimit: unexpected script reply", "key", key)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.remaining, 10))
			if st.allowed {
				return next(c)
			}

			secs := int((st.wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Info("ratelimit: blocked", "key", key, "retry_after_s", secs)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// buildRateKey derives the bucket key from the configured strategy.
// Unknown strategies key on ip, user and route together.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	user := userKey(c)
	route := c.Request().Method + " " + c.Path()

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = []string{"ip", ip}
	case "user":
		parts = []string{"user", user}
	case "route":
		parts = []string{"route", route}
	case "ip_user":
		parts = []string{"ip", ip, "user", user}
	case "ip_route":
		parts = []string{"ip", ip, "route", route}
	case "user_route":
		parts = []string{"user", user, "route", route}
	default:
		parts = []string{"ip", ip, "user", user, "route", route}
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}
