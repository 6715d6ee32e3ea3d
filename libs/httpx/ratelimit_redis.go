package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client in fixed windows kept in Redis, so every
// booking-service replica enforces the same budget.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// First hit of a window sets the expiry; later hits only increment.
var windowCounter = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Millisecond {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix, now: time.Now}
}

// Middleware enforces the limit. With failOpen a Redis outage lets traffic through
// instead of answering 503.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, resetIn, err := rl.hit(r.Context(), clientKey(r))
			if err != nil {
				if logger != nil {
					logger.Warn("redis rate limiter error", "request_id", RequestIDFromContext(r.Context()), "err", err)
				}
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "rate limiter unavailable", http.StatusServiceUnavailable)
				return
			}

			remaining := rl.limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if count > int64(rl.limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int((resetIn+time.Second-1)/time.Second)))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hit counts one request for client and returns the running total together with the time
// left in the current window.
func (rl *RedisRateLimiter) hit(ctx context.Context, client string) (int64, time.Duration, error) {
	windowMs := rl.window.Milliseconds()
	nowMs := rl.now().UnixMilli()
	bucket := nowMs / windowMs
	key := rl.prefix + ":" + client + ":" + strconv.FormatInt(bucket, 10)

	count, err := windowCounter.Run(ctx, rl.rdb, []string{key}, windowMs).Int64()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit counter %s: %w", key, err)
	}
	resetIn := time.Duration((bucket+1)*windowMs-nowMs) * time.Millisecond
	return count, resetIn, nil
}
