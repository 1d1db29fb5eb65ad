package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an accepted payment. It carries no JSON or DB tags; adapters
// map it to their own shapes.
type Transaction struct {
	ID                  uuid.UUID
	CustomerID          string
	Price               Money
	PriceModifier       decimal.Decimal
	PaymentMethod       PaymentMethod
	TransactionDateTime time.Time
	FinalPrice          Money
	Points              int64
	SupplementaryInfo   SupplementaryInfo
	CreatedAt           time.Time
}

// TransactionParams are the caller-supplied parts of a Transaction.
type TransactionParams struct {
	CustomerID          string
	Price               Money
	PriceModifier       decimal.Decimal
	PaymentMethod       PaymentMethod
	TransactionDateTime time.Time
	FinalPrice          Money
	Points              int64
	SupplementaryInfo   SupplementaryInfo
}

// TransactionOption overrides a generated attribute, mostly when rehydrating
// stored rows.
type TransactionOption func(*Transaction)

func WithID(id uuid.UUID) TransactionOption {
	return func(t *Transaction) { t.ID = id }
}

func WithCreatedAt(at time.Time) TransactionOption {
	return func(t *Transaction) { t.CreatedAt = at }
}

// NewTransaction assigns a fresh identity and creation time unless overridden.
func NewTransaction(p TransactionParams, opts ...TransactionOption) (Transaction, error) {
	if p.Points < 0 {
		return Transaction{}, ErrInvalidPoints
	}
	tx := Transaction{
		ID:                  uuid.New(),
		CustomerID:          p.CustomerID,
		Price:               p.Price,
		PriceModifier:       p.PriceModifier,
		PaymentMethod:       p.PaymentMethod,
		TransactionDateTime: p.TransactionDateTime,
		FinalPrice:          p.FinalPrice,
		Points:              p.Points,
		SupplementaryInfo:   p.SupplementaryInfo,
		CreatedAt:           time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&tx)
	}
	return tx, nil
}

// Equal reports identity: two transactions are the same iff their IDs match.
func (t Transaction) Equal(other Transaction) bool {
	return t.ID == other.ID
}

// HourBucket is the transaction time truncated to the start of its hour,
// in the transaction's own location.
func (t Transaction) HourBucket() time.Time {
	return HourBucket(t.TransactionDateTime)
}

// HourBucket truncates ts to the start of its hour.
func HourBucket(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, ts.Location())
}
