package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pos-payment-system/internal/observability"
)

// RouterConfig collects what the gateway router serves. Auth is required;
// RateLimiter is optional.
type RouterConfig struct {
	ServiceName string
	Logger      *slog.Logger
	Payments    *PaymentHandler
	Tokens      *AuthHandler
	Auth        func(http.Handler) http.Handler
	RateLimiter *RateLimiterMiddleware
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(cfg.Logger),
		observability.NewMetricsMiddleware(cfg.ServiceName),
		observability.NewTracingMiddleware(cfg.ServiceName),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": cfg.ServiceName,
		})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/token", cfg.Tokens.HandleToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Auth)
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Post("/payments", cfg.Payments.HandleProcessPayment)
		r.Post("/sales/report", cfg.Payments.HandleSalesReport)
		r.Get("/payment-methods", cfg.Payments.HandleListPaymentMethods)
	})

	return r
}
