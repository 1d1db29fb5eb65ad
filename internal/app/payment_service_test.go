package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

func cashRequest() ports.PaymentRequest {
	return ports.PaymentRequest{
		CustomerID:    faker.UUIDHyphenated(),
		Price:         "100.00",
		PriceModifier: "0.95",
		PaymentMethod: "CASH",
		DateTime:      "2022-09-01T00:00:00Z",
	}
}

func TestPaymentService_ProcessPayment_Success(t *testing.T) {
	// --- Arrange ---
	mockRepo := new(MockRepository)
	mockBroker := new(MockBroker)
	service := NewPaymentService(mockRepo, mockBroker)
	req := cashRequest()

	isExpectedTx := mock.MatchedBy(func(tx domain.Transaction) bool {
		return tx.CustomerID == req.CustomerID &&
			tx.PaymentMethod == domain.PaymentMethodCash &&
			tx.Price.String() == "100.00" &&
			tx.FinalPrice.String() == "95.00" &&
			tx.Points == 5 &&
			tx.TransactionDateTime.Equal(time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC))
	})
	mockRepo.On("Save", mock.Anything, isExpectedTx).Return(nil)
	mockBroker.On("PublishTransactionAccepted", mock.Anything, isExpectedTx).Return(nil)

	// --- Act ---
	resp, err := service.ProcessPayment(context.Background(), req)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "95.00", resp.FinalPrice)
	assert.Equal(t, int64(5), resp.Points)
	assert.NotEmpty(t, resp.TransactionID)

	mockRepo.AssertExpectations(t)
	mockBroker.AssertExpectations(t)
}

func TestPaymentService_ProcessPayment_VisaLast4(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewPaymentService(mockRepo, nil)
	ctx := context.Background()

	req := cashRequest()
	req.PaymentMethod = "VISA"
	req.PriceModifier = "0.98"

	_, err := service.ProcessPayment(ctx, req)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Errors, 1)
	assert.Equal(t, "additionalItem.last4", vErr.Errors[0].Field)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Transaction")).Return(nil)
	req.AdditionalItem = map[string]any{"last4": "1234"}
	resp, err := service.ProcessPayment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "98.00", resp.FinalPrice)
	assert.Equal(t, int64(3), resp.Points)
}

func TestPaymentService_ProcessPayment_RejectsBeforeStorage(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*ports.PaymentRequest)
		sentinel error
		message  string
	}{
		{
			name:     "unknown method",
			mutate:   func(r *ports.PaymentRequest) { r.PaymentMethod = "INVALID" },
			sentinel: domain.ErrPaymentMethodNotSupported,
			message:  "Payment method 'INVALID' is not supported",
		},
		{
			name:     "bad price",
			mutate:   func(r *ports.PaymentRequest) { r.Price = "not_a_price" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price format: not_a_price",
		},
		{
			name:     "negative price",
			mutate:   func(r *ports.PaymentRequest) { r.Price = "-10.00" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price format: -10.00",
		},
		{
			name:     "bad modifier",
			mutate:   func(r *ports.PaymentRequest) { r.PriceModifier = "abc" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price modifier format",
		},
		{
			name:     "price with huge exponent",
			mutate:   func(r *ports.PaymentRequest) { r.Price = "1e20000000" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price format: 1e20000000",
		},
		{
			name:     "price below smallest unit",
			mutate:   func(r *ports.PaymentRequest) { r.Price = "1e-2000000" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price format: 1e-2000000",
		},
		{
			name:     "price with too many integer digits",
			mutate:   func(r *ports.PaymentRequest) { r.Price = "12345678901234" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price format: 12345678901234",
		},
		{
			name:     "modifier with huge exponent",
			mutate:   func(r *ports.PaymentRequest) { r.PriceModifier = "1e20000000" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price modifier format",
		},
		{
			name:     "modifier with tiny exponent",
			mutate:   func(r *ports.PaymentRequest) { r.PriceModifier = "1e-2000000" },
			sentinel: domain.ErrInvalidPrice,
			message:  "Invalid price modifier format",
		},
		{
			name:     "modifier out of range",
			mutate:   func(r *ports.PaymentRequest) { r.PriceModifier = "0.5" },
			sentinel: domain.ErrValidationFailed,
			message:  "priceModifier: Price modifier must be between 0.90 and 1.00 for CASH",
		},
		{
			name:     "bad datetime",
			mutate:   func(r *ports.PaymentRequest) { r.DateTime = "yesterday" },
			sentinel: domain.ErrInvalidDateTime,
			message:  "Invalid datetime format: yesterday",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			mockBroker := new(MockBroker)
			service := NewPaymentService(mockRepo, mockBroker)

			req := cashRequest()
			tt.mutate(&req)
			_, err := service.ProcessPayment(context.Background(), req)

			require.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.message, err.Error())
			mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			mockBroker.AssertNotCalled(t, "PublishTransactionAccepted", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_ProcessPayment_LargestPriceIsPriced(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewPaymentService(mockRepo, nil)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	req := cashRequest()
	req.PaymentMethod = "CASH_ON_DELIVERY"
	req.Price = "9999999999999.9999"
	req.PriceModifier = "1.02"
	req.AdditionalItem = map[string]any{"courier": "YAMATO"}

	resp, err := service.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "10200000000000.00", resp.FinalPrice)
}

func TestPaymentService_ProcessPayment_OversizedInputIsCheap(t *testing.T) {
	service := NewPaymentService(new(MockRepository), nil)
	start := time.Now()
	for _, price := range []string{"1e20000000", "9e999999999", "1e-2000000"} {
		req := cashRequest()
		req.Price = price
		_, err := service.ProcessPayment(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrInvalidPrice)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestPaymentService_ProcessPayment_StorageFailure(t *testing.T) {
	mockRepo := new(MockRepository)
	mockBroker := new(MockBroker)
	service := NewPaymentService(mockRepo, mockBroker)

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := service.ProcessPayment(context.Background(), cashRequest())

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	mockBroker.AssertNotCalled(t, "PublishTransactionAccepted", mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessPayment_PublishFailureKeepsPayment(t *testing.T) {
	mockRepo := new(MockRepository)
	mockBroker := new(MockBroker)
	service := NewPaymentService(mockRepo, mockBroker)

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	mockBroker.On("PublishTransactionAccepted", mock.Anything, mock.Anything).Return(domain.ErrBrokerUnavailable)

	resp, err := service.ProcessPayment(context.Background(), cashRequest())

	require.NoError(t, err)
	assert.Equal(t, "95.00", resp.FinalPrice)
	mockBroker.AssertExpectations(t)
}

func TestPaymentService_ProcessPayment_BankTransferAliases(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewPaymentService(mockRepo, nil)

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(tx domain.Transaction) bool {
		info := tx.SupplementaryInfo
		return info.Bank() == "MUFG" && info.AccountNumber() == "0012345" && tx.Points == 0
	})).Return(nil)

	req := cashRequest()
	req.PaymentMethod = "BANK_TRANSFER"
	req.PriceModifier = "1"
	req.AdditionalItem = map[string]any{"bank": "MUFG", "account_number": "0012345"}

	resp, err := service.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "100.00", resp.FinalPrice)
	assert.Equal(t, int64(0), resp.Points)
	mockRepo.AssertExpectations(t)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "accepted", outcomeOf(nil))
	assert.Equal(t, "rejected", outcomeOf(&domain.ValidationError{}))
	assert.Equal(t, "unsupported", outcomeOf(&domain.PaymentMethodError{Method: "X"}))
	assert.Equal(t, "invalid", outcomeOf(&domain.InvalidPriceError{}))
	assert.Equal(t, "error", outcomeOf(errors.New("boom")))
	assert.Equal(t, "unknown", methodLabel("BITCOIN"))
	assert.Equal(t, "JCB", methodLabel("JCB"))
}
