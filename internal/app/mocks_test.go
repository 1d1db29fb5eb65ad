package app

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

// MockRepository echoes the saved entity back, as the real store does.
type MockRepository struct {
	mock.Mock
}

var _ ports.TransactionRepository = (*MockRepository)(nil)

func (m *MockRepository) Save(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	args := m.Called(ctx, tx)
	if err := args.Error(0); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (m *MockRepository) HourlySales(ctx context.Context, start, end time.Time) ([]domain.HourlySales, error) {
	args := m.Called(ctx, start, end)
	rows, _ := args.Get(0).([]domain.HourlySales)
	return rows, args.Error(1)
}

type MockBroker struct {
	mock.Mock
}

var _ ports.MessageBroker = (*MockBroker)(nil)

func (m *MockBroker) PublishTransactionAccepted(ctx context.Context, tx domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
