package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
	"pos-payment-system/internal/observability"
)

// paymentService is the implementation of the PaymentService port.
type paymentService struct {
	repo   ports.TransactionRepository
	broker ports.MessageBroker
}

// NewPaymentService wires the payment use case. broker may be nil, in which
// case no events are published.
func NewPaymentService(repo ports.TransactionRepository, broker ports.MessageBroker) ports.PaymentService {
	return &paymentService{
		repo:   repo,
		broker: broker,
	}
}

func (s *paymentService) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (resp *ports.PaymentResponse, err error) {
	ctx, span := observability.Tracer().Start(ctx, "ProcessPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.method", req.PaymentMethod))

	defer func() {
		observability.PaymentsTotal.WithLabelValues(methodLabel(req.PaymentMethod), outcomeOf(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	price, err := domain.ParsePrice(req.Price)
	if err != nil {
		return nil, &domain.InvalidPriceError{Message: "Invalid price format: " + truncate(req.Price, 64)}
	}

	modifier, err := domain.ParsePriceModifier(req.PriceModifier)
	if err != nil {
		return nil, err
	}

	info := RawSupplementaryInfo(req.AdditionalItem).Normalize()

	quote, err := domain.Calculate(method, price, modifier, info)
	if err != nil {
		return nil, err
	}

	at, err := ParseDateTime(req.DateTime)
	if err != nil {
		return nil, err
	}

	tx, err := domain.NewTransaction(domain.TransactionParams{
		CustomerID:          req.CustomerID,
		Price:               price,
		PriceModifier:       modifier,
		PaymentMethod:       method,
		TransactionDateTime: at,
		FinalPrice:          quote.FinalPrice,
		Points:              quote.Points,
		SupplementaryInfo:   info,
	})
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx).With("transaction_id", tx.ID.String(), "method", string(method))

	saved, err := s.repo.Save(ctx, tx)
	if err != nil {
		logger.Error("failed to save transaction", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	// The payment is committed at this point; the event is best effort.
	if s.broker != nil {
		if perr := s.broker.PublishTransactionAccepted(ctx, saved); perr != nil {
			observability.EventPublishFailuresTotal.Inc()
			logger.Warn("failed to publish transaction accepted event", "error", perr)
		}
	}

	observability.PointsAwardedTotal.WithLabelValues(string(method)).Add(float64(saved.Points))
	logger.Info("payment accepted", "customer_id", saved.CustomerID, "final_price", saved.FinalPrice.String(), "points", saved.Points)

	return &ports.PaymentResponse{
		TransactionID: saved.ID,
		FinalPrice:    saved.FinalPrice.String(),
		Points:        saved.Points,
	}, nil
}

// methodLabel keeps unknown method names out of metric labels.
func methodLabel(raw string) string {
	if _, err := domain.ParsePaymentMethod(raw); err != nil {
		return "unknown"
	}
	return raw
}

// truncate bounds client input echoed back in error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeAccepted
	case errors.Is(err, domain.ErrValidationFailed):
		return observability.OutcomeRejected
	case errors.Is(err, domain.ErrPaymentMethodNotSupported):
		return observability.OutcomeUnsupported
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidDateTime):
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeError
	}
}
