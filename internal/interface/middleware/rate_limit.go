package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/trade-ham/marketplace-api/pkg/response"
)

// KeyFunc names the bucket a request is counted in.
type KeyFunc func(c *gin.Context) string

// AllowFunc reports whether a request skips limiting entirely.
type AllowFunc func(*gin.Context) bool

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyByIP counts every request from one client address together.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "rl:ip:" + ipFromCtx(c) }
}

// KeyByIPAndPath counts per client address and route pattern, e.g. one
// bucket for /login/:provider regardless of provider.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string { return "rl:path:" + routeOf(c) + ":ip:" + ipFromCtx(c) }
}

// KeyByUserID counts per authenticated user and falls back to the address
// for anonymous callers. Must run after Auth or OptionalAuth.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(CtxUserIDKey); uid != "" {
			return "rl:user:" + uid
		}
		return "rl:user:anon:ip:" + ipFromCtx(c)
	}
}

// Fixed window: INCR, arm the expiry on the first hit, and return the
// count with the remaining window in one round trip.
var fixedWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

type windowCounter struct {
	rdb    *redis.Client
	window time.Duration
}

func (w windowCounter) hit(ctx context.Context, key string) (int, time.Duration, error) {
	res, err := fixedWindowScript.Run(ctx, w.rdb, []string{key}, w.window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, err
	}
	var n, pttl int64
	if len(res) == 2 {
		n, _ = res[0].(int64)
		pttl, _ = res[1].(int64)
	}
	if pttl < 0 {
		pttl = 0
	}
	return int(n), time.Duration(pttl) * time.Millisecond, nil
}

// RateLimit allows maxReq requests per window for each key and answers 429
// with Retry-After once the bucket is spent. Redis errors fail open.
// A nil client or non-positive limit disables it.
func RateLimit(rdb *redis.Client, maxReq int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || maxReq <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	counter := windowCounter{rdb: rdb, window: window}
	limit := strconv.Itoa(maxReq)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		n, reset, err := counter.hit(c.Request.Context(), keyFn(c))
		if err != nil {
			c.Next()
			return
		}

		resetSec := int((reset + time.Second - 1) / time.Second)
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxReq-n)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if n > maxReq {
			c.Header("Retry-After", strconv.Itoa(resetSec))
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
