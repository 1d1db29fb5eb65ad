package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httphandler "pos-payment-system/internal/adapters/http"
	"pos-payment-system/internal/adapters/messaging/kafka"
	"pos-payment-system/internal/adapters/messaging/logbroker"
	"pos-payment-system/internal/adapters/storage/postgres"
	"pos-payment-system/internal/adapters/storage/redis"
	"pos-payment-system/internal/app"
	"pos-payment-system/internal/config"
	"pos-payment-system/internal/core/ports"
	"pos-payment-system/internal/observability"
)

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	configPath, err := config.PathFromFlags(os.Args[1:])
	if err != nil {
		fallbackLogger.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fallbackLogger.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	slog.SetDefault(logger)
	logger.Info("Application starting", "env", cfg.App.Env, "port", cfg.Server.Port)

	// --- 2. Validate critical config ---
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 3. Observability ---
	if cfg.Jaeger.Port != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
			Endpoint:    cfg.Jaeger.Port,
			ServiceName: cfg.App.Name,
			Environment: cfg.App.Env,
		})
		if err != nil {
			logger.Error("Failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Warn("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	// --- 4. Dependencies ---
	repo, err := postgres.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("Connected to PostgreSQL")

	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, repo.Pool()); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("Migrations applied")
	}

	// Redis
	var rateLimiter *httphandler.RateLimiterMiddleware
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("Failed to close Redis client", "error", err)
			}
		}()
		rateLimiter = httphandler.NewRateLimiterMiddleware(
			redis.NewRateLimiterAdapter(rdb), cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
		logger.Info("Connected to Redis", "limit", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window)
	} else {
		logger.Warn("Redis address not set, rate limiting disabled")
	}

	// Kafka
	var broker ports.MessageBroker
	if cfg.Kafka.BootstrapServers != "" {
		kb, err := kafka.NewBroker(ctx, strings.Split(cfg.Kafka.BootstrapServers, ","), cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("Failed to create Kafka broker", "error", err)
			os.Exit(1)
		}
		defer kb.Close()
		broker = kb
		logger.Info("Kafka broker created", "topic", cfg.Kafka.Topic)
	} else {
		broker = logbroker.NewBroker(logger)
		logger.Warn("Kafka not configured, accepted payments are only logged")
	}

	// --- 5. Service Layer ---
	paymentService := app.NewPaymentService(repo, broker)
	reportService := app.NewSalesReportService(repo)
	paymentHandler := httphandler.NewPaymentHandler(paymentService, reportService, logger)
	authHandler := httphandler.NewAuthHandler(logger, cfg.JWT.Secret, cfg.JWT.TTL, cfg.TerminalSecret)

	auth := httphandler.JWTMiddleware([]byte(cfg.JWT.Secret), logger)
	if cfg.OIDC.URL != "" {
		oidcAuth, err := httphandler.NewOIDCAuthenticator(ctx, cfg.OIDC.URL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Error("Failed to create OIDC authenticator", "error", err)
			os.Exit(1)
		}
		auth = oidcAuth.Middleware
		logger.Info("Using OIDC authentication", "provider", cfg.OIDC.URL)
	}

	// --- 6. HTTP Router ---
	router := httphandler.NewRouter(httphandler.RouterConfig{
		ServiceName: cfg.App.Name,
		Logger:      logger,
		Payments:    paymentHandler,
		Tokens:      authHandler,
		Auth:        auth,
		RateLimiter: rateLimiter,
	})

	// --- 7. HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + strings.TrimPrefix(cfg.Server.Port, ":"),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		logger.Error("HTTP server failed", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		return
	}

	logger.Info("Server exited properly")
}
