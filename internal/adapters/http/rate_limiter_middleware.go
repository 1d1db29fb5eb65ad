package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"pos-payment-system/internal/core/ports"
)

// RateLimiterMiddleware limits requests per caller within a fixed window.
type RateLimiterMiddleware struct {
	repo   ports.RateLimiterRepository
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewRateLimiterMiddleware(repo ports.RateLimiterRepository, limit int, window time.Duration, logger *slog.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		repo:   repo,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Handler keys on the authenticated terminal when known, the client IP otherwise.
func (m *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := Subject(r.Context())
		if key == "" {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				m.logger.Error("failed to resolve client IP", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			key = ip
		}

		allowed, err := m.repo.IsAllowed(r.Context(), key, m.limit, m.window)
		if err != nil {
			// Fail open: a limiter outage must not stop payments.
			m.logger.Error("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(m.window.Seconds())))
			writeJSONError(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
