package logbroker

import (
	"context"
	"log/slog"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

var _ ports.MessageBroker = (*Broker)(nil)

// Broker stands in for Kafka when no brokers are configured; it logs events instead.
type Broker struct {
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger}
}

func (b *Broker) PublishTransactionAccepted(ctx context.Context, tx domain.Transaction) error {
	b.logger.InfoContext(ctx, "transaction accepted",
		"transaction_id", tx.ID.String(),
		"method", string(tx.PaymentMethod),
		"final_price", tx.FinalPrice.String(),
		"points", tx.Points,
	)
	return nil
}
