package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per minute per caller of the router.
// Callers are told apart by user id when authenticated, by IP otherwise.
func RateLimit(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := rateLimiter.Allow(
				r.Context(),
				rateLimitKey(routerName, r),
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				log.Errorf("rate limit [%s]: %s", routerName, err)
				pkg.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error", "rate limit internal error", nil)
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			retryAfterSec := int(math.Ceil(res.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
			pkg.WriteJSONError(w, http.StatusTooManyRequests, "Too Many Requests",
				fmt.Sprintf("retry after %d seconds", retryAfterSec), nil)
		})
	}
}

func rateLimitKey(routerName string, r *http.Request) string {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return fmt.Sprintf("%s:user:%d", routerName, userID)
	}
	ip, err := pkg.ReadUserIP(r)
	if err != nil || ip == "" {
		ip = "unknown"
	}
	return routerName + ":ip:" + ip
}
