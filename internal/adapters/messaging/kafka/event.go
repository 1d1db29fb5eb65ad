package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pos-payment-system/internal/core/domain"
)

// EventTypeTransactionAccepted is carried in the event-type header.
const EventTypeTransactionAccepted = "TransactionAccepted"

// TransactionEvent is the wire form of an accepted payment. Amounts travel as
// decimal strings.
type TransactionEvent struct {
	ID                  string            `json:"id"`
	CustomerID          string            `json:"customerId"`
	Price               string            `json:"price"`
	PriceModifier       string            `json:"priceModifier"`
	PaymentMethod       string            `json:"paymentMethod"`
	TransactionDateTime time.Time         `json:"transactionDateTime"`
	FinalPrice          string            `json:"finalPrice"`
	Points              int64             `json:"points"`
	AdditionalItem      map[string]string `json:"additionalItem,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
}

func NewTransactionEvent(tx domain.Transaction) TransactionEvent {
	return TransactionEvent{
		ID:                  tx.ID.String(),
		CustomerID:          tx.CustomerID,
		Price:               tx.Price.Amount().String(),
		PriceModifier:       tx.PriceModifier.String(),
		PaymentMethod:       string(tx.PaymentMethod),
		TransactionDateTime: tx.TransactionDateTime,
		FinalPrice:          tx.FinalPrice.Amount().String(),
		Points:              tx.Points,
		AdditionalItem:      tx.SupplementaryInfo.Fields(),
		CreatedAt:           tx.CreatedAt,
	}
}

// DecodeTransactionEvent parses and checks an event payload, returning the
// transaction it describes.
func DecodeTransactionEvent(payload []byte) (domain.Transaction, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return domain.Transaction{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev.ToDomain()
}

func (ev TransactionEvent) ToDomain() (domain.Transaction, error) {
	id, err := uuid.Parse(ev.ID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("event id %q: %w", ev.ID, err)
	}
	method, err := domain.ParsePaymentMethod(ev.PaymentMethod)
	if err != nil {
		return domain.Transaction{}, err
	}
	price, err := domain.MoneyFromString(ev.Price)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("event price: %w", err)
	}
	finalPrice, err := domain.MoneyFromString(ev.FinalPrice)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("event final price: %w", err)
	}
	modifier, err := domain.ParsePriceModifier(ev.PriceModifier)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("event price modifier %q: %w", ev.PriceModifier, err)
	}
	if ev.TransactionDateTime.IsZero() {
		return domain.Transaction{}, fmt.Errorf("event %s has no transaction datetime", ev.ID)
	}

	return domain.NewTransaction(domain.TransactionParams{
		CustomerID:          ev.CustomerID,
		Price:               price,
		PriceModifier:       modifier,
		PaymentMethod:       method,
		TransactionDateTime: ev.TransactionDateTime,
		FinalPrice:          finalPrice,
		Points:              ev.Points,
		SupplementaryInfo:   domain.SupplementaryInfoFromFields(ev.AdditionalItem),
	}, domain.WithID(id), domain.WithCreatedAt(ev.CreatedAt))
}
