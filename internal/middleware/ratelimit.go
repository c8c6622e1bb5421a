package middleware

import (
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/movigo/movie-catalog/internal/config"
)

// NewRateLimiter returns a fixed-window rate limiter backed by Redis.
// Each client IP gets cfg.Limit requests per cfg.Window; beyond that
// the request is rejected with 429 and a Retry-After header.  Window
// counters are plain INCR keys with an expiry, so the limit is shared
// across all server instances pointing at the same Redis.  When the
// limiter is disabled or Redis is unavailable the middleware is a
// pass-through; a Redis error at request time also lets the request
// through rather than failing the API.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    windowSec := int64(cfg.Window / time.Second)
    if windowSec < 1 {
        windowSec = 1
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            window := time.Now().Unix() / windowSec
            key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, c.RealIP(), window)

            ctx := c.Request().Context()
            n, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                return next(c)
            }
            if n == 1 {
                _ = rdb.Expire(ctx, key, cfg.Window).Err()
            }

            remaining := int64(cfg.Limit) - n
            if remaining < 0 {
                remaining = 0
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if n > int64(cfg.Limit) {
                retry := windowSec - (time.Now().Unix() % windowSec)
                h.Set("Retry-After", strconv.FormatInt(retry, 10))
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}
