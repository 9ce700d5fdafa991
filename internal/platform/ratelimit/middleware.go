package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"flightsurety/internal/platform/metrics"
	"flightsurety/internal/platform/middleware"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

// Middleware limits each authenticated caller, or the client IP when no
// caller is known. Limiter faults let the request through.
func Middleware(limiter Limiter, policy Policy, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "ip:" + middleware.ClientIP(r)
			if caller := requestcontext.Caller(ctx); !caller.IsZero() {
				key = "caller:" + caller.String()
			}

			result, err := limiter.Allow(ctx, key, policy.Limit, policy.Window)
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if !result.Allowed {
				if m != nil {
					m.IncrementRateLimited()
				}
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
