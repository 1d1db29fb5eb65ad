package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
	"pos-payment-system/internal/observability"
)

var _ ports.MessageBroker = (*Broker)(nil)

// producer is the subset of *kgo.Client the broker uses.
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Close()
}

// Broker is an implementation of the MessageBroker port for Kafka.
type Broker struct {
	client producer
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBroker creates a Kafka producer and checks that the cluster is reachable.
func NewBroker(ctx context.Context, bootstrapServers []string, topic string, logger *slog.Logger) (*Broker, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return newBroker(client, topic, logger), nil
}

func newBroker(client producer, topic string, logger *slog.Logger) *Broker {
	return &Broker{client: client, topic: topic, logger: logger}
}

// PublishTransactionAccepted enqueues the event keyed by transaction id.
// Delivery is asynchronous; delivery failures are logged by the callback.
func (b *Broker) PublishTransactionAccepted(ctx context.Context, tx domain.Transaction) error {
	payload, err := json.Marshal(NewTransactionEvent(tx))
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}

	record := &kgo.Record{
		Topic: b.topic,
		Key:   []byte(tx.ID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventType, Value: []byte(EventTypeTransactionAccepted)},
		},
	}

	b.wg.Add(1)
	// The request context ends with the response; delivery must outlive it.
	b.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		defer b.wg.Done()
		if err != nil {
			observability.EventPublishFailuresTotal.Inc()
			b.logger.Error("failed to deliver event to kafka", "topic", r.Topic, "transaction_id", tx.ID.String(), "error", err)
			return
		}
		b.logger.Debug("event delivered to kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
	})

	return nil
}

// Close waits for in-flight deliveries and stops the producer.
func (b *Broker) Close() {
	b.logger.Info("waiting for pending kafka deliveries")
	b.wg.Wait()
	b.client.Close()
	b.logger.Info("kafka producer stopped")
}
