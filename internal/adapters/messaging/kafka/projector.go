package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

const ErrorTypeDecode = "decode_error"

// Projector copies transaction.accepted events into a SalesProjection.
// Records that cannot be decoded go to the dead-letter topic instead.
type Projector struct {
	sink     ports.SalesProjection
	dlq      producer
	dlqTopic string
	logger   *slog.Logger
}

func NewProjector(sink ports.SalesProjection, dlq *kgo.Client, dlqTopic string, logger *slog.Logger) *Projector {
	return newProjector(sink, dlq, dlqTopic, logger)
}

func newProjector(sink ports.SalesProjection, dlq producer, dlqTopic string, logger *slog.Logger) *Projector {
	return &Projector{sink: sink, dlq: dlq, dlqTopic: dlqTopic, logger: logger}
}

// HandleBatch decodes records and inserts the good ones in one call. A sink
// error is returned so the caller leaves offsets uncommitted and the batch is
// redelivered.
func (p *Projector) HandleBatch(ctx context.Context, records []*kgo.Record) error {
	txs := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		if et := Header(rec.Headers, HeaderEventType); et != "N/A" && et != EventTypeTransactionAccepted {
			continue
		}
		tx, err := DecodeTransactionEvent(rec.Value)
		if err != nil {
			p.logger.Error("Undecodable event, sending to DLQ",
				"topic", rec.Topic, "partition", rec.Partition, "offset", rec.Offset, "error", err)
			p.sendToDLQ(rec, err)
			continue
		}
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return nil
	}
	if err := p.sink.InsertTransactions(ctx, txs); err != nil {
		return fmt.Errorf("project %d transactions: %w", len(txs), err)
	}
	p.logger.Info("Projected transactions", "count", len(txs))
	return nil
}

func (p *Projector) sendToDLQ(rec *kgo.Record, cause error) {
	dlqRecord := NewDLQRecord(rec, p.dlqTopic, ErrorTypeDecode, cause)
	p.dlq.Produce(context.Background(), dlqRecord, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("Failed to write to DLQ", "original_offset", rec.Offset, "error", err)
		}
	})
}
