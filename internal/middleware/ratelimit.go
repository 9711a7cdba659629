package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/respond"
	"github.com/AnshRaj112/pixora-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimitKeyPrefix is the Redis key prefix for rate limiting
const RateLimitKeyPrefix = "ratelimit:"

// RateLimitConfig describes a fixed window limit shared through Redis.
type RateLimitConfig struct {
	Name       string // key namespace, e.g. "auth"
	Max        int
	Window     time.Duration
	TrustProxy bool
}

// RateLimit counts requests per client IP in a fixed Redis window and
// answers 429 once Max is exceeded. Without Redis, or when Redis fails, the
// request is let through.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.FromRequest(r, cfg.TrustProxy)
			key := RateLimitKeyPrefix + cfg.Name + ":" + ip
			ctx := r.Context()

			pipe := rdb.TxPipeline()
			incr := pipe.Incr(ctx, key)
			ttl := pipe.TTL(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				log.WithError(err).WithField("ip", ip).Warn("rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			count := int(incr.Val())
			reset := ttl.Val()
			if reset < 0 {
				// first hit of the window
				reset = cfg.Window
				if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
					log.WithError(err).WithField("ip", ip).Warn("rate limit window not set")
				}
			}
			remaining := cfg.Max - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

			if count > cfg.Max {
				w.Header().Set("Retry-After", strconv.Itoa(int(reset.Seconds())))
				respond.Error(w, nil, apperror.Validation("Too many requests from this IP, please try again later").
					WithStatus(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
