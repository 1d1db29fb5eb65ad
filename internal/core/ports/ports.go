package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pos-payment-system/internal/core/domain"
)

// TransactionRepository is the outgoing storage port for accepted payments.
type TransactionRepository interface {
	// Save persists every field of tx, supplementary info included, and keeps
	// the entity's identity.
	Save(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	SalesReader
}

// SalesReader answers hourly aggregates. Both bounds are inclusive and rows
// come back ascending by hour start.
type SalesReader interface {
	HourlySales(ctx context.Context, start, end time.Time) ([]domain.HourlySales, error)
}

// SalesProjection receives accepted payments replayed from the event stream.
// Inserting the same transaction twice must not double its totals.
type SalesProjection interface {
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
}

// MessageBroker announces accepted payments to downstream consumers.
type MessageBroker interface {
	PublishTransactionAccepted(ctx context.Context, tx domain.Transaction) error
}

// RateLimiterRepository counts requests per key within a fixed window.
type RateLimiterRepository interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PaymentRequest is the raw inbound payment as received from a terminal.
type PaymentRequest struct {
	CustomerID     string
	Price          string
	PriceModifier  string
	PaymentMethod  string
	DateTime       string
	AdditionalItem map[string]any
}

// PaymentResponse is the priced outcome returned to the terminal.
type PaymentResponse struct {
	TransactionID uuid.UUID
	FinalPrice    string
	Points        int64
}

// PaymentService is the incoming port for taking payments.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
}

// SalesReportRequest holds ISO-8601 bounds of a report.
type SalesReportRequest struct {
	StartDateTime string
	EndDateTime   string
}

// HourlySalesRecord is one formatted report row.
type HourlySalesRecord struct {
	DateTime string
	Sales    string
	Points   int64
}

// SalesReportService is the incoming port for hourly reporting.
type SalesReportService interface {
	SalesReport(ctx context.Context, req SalesReportRequest) ([]HourlySalesRecord, error)
}
