package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"

	"pos-payment-system/internal/adapters/analytics/clickhouse"
	"pos-payment-system/internal/adapters/messaging/kafka"
	"pos-payment-system/internal/config"
	"pos-payment-system/internal/observability"
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	configPath, err := config.PathFromFlags(os.Args[1:])
	if err != nil {
		fallbackLogger.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Sales projector starting", "env", cfg.App.Env, "topic", cfg.Kafka.Topic)

	if cfg.Kafka.BootstrapServers == "" || cfg.ClickHouse.Addr == "" {
		logger.Error("kafka.bootstrap_servers and clickhouse.addr are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- ClickHouse ---
	store, err := clickhouse.Open(ctx, clickhouse.Options{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		User:     cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
	})
	if err != nil {
		logger.Error("Failed to connect to ClickHouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ClickHouse connection", "error", err)
		}
	}()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("Failed to create sales schema", "error", err)
		os.Exit(1)
	}

	// --- Kafka ---
	brokers := strings.Split(cfg.Kafka.BootstrapServers, ",")

	dlqProducer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		logger.Error("Failed to create Kafka producer for DLQ", "error", err)
		os.Exit(1)
	}
	defer dlqProducer.Close()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(cfg.Kafka.Group),
		kgo.ConsumeTopics(cfg.Kafka.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		logger.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	projector := kafka.NewProjector(store, dlqProducer, cfg.Kafka.DLQTopic, logger)
	logger.Info("Sales projector ready", "group", cfg.Kafka.Group, "dlq", cfg.Kafka.DLQTopic)

	if err := consume(ctx, consumer, dlqProducer, projector, logger); err != nil {
		logger.Error("Sales projector stopped", "error", err)
		exitCode = 1
		return
	}
	logger.Info("Sales projector stopping")
}

// consume polls until ctx ends. A projection failure stops the loop with the
// batch uncommitted, so a restart resumes from the last committed offsets.
func consume(ctx context.Context, consumer, dlqProducer *kgo.Client, projector *kafka.Projector, logger *slog.Logger) error {
	for {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(t string, p int32, err error) {
			logger.Error("Kafka fetch error", "topic", t, "partition", p, "error", err)
		})

		if err := projector.HandleBatch(ctx, fetches.Records()); err != nil {
			return err
		}
		if err := dlqProducer.Flush(ctx); err != nil {
			return fmt.Errorf("flush DLQ producer: %w", err)
		}
		if err := consumer.CommitUncommittedOffsets(ctx); err != nil {
			logger.Error("Failed to commit offsets", "error", err)
		}
	}
}
