package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

var _ ports.TransactionRepository = (*Repository)(nil)

// ErrNotFound is returned by TransactionByID for an unknown id.
var ErrNotFound = errors.New("transaction not found")

// Repository is an implementation of the TransactionRepository port for PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to dsn and checks the connection.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Pool exposes the underlying pool, e.g. for migrations.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Save inserts tx. Repeating a save of the same id is a no-op.
func (r *Repository) Save(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	const q = `
		INSERT INTO transactions
		    (id, customer_id, price, price_modifier, payment_method, transaction_datetime,
		     final_price, points, supplementary_info, created_at)
		VALUES
		    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, q, insertArgs(tx)...)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
	}
	return tx, nil
}

func insertArgs(tx domain.Transaction) []any {
	return []any{
		tx.ID,
		tx.CustomerID,
		tx.Price.Amount(),
		tx.PriceModifier,
		string(tx.PaymentMethod),
		tx.TransactionDateTime,
		tx.FinalPrice.Amount(),
		tx.Points,
		tx.SupplementaryInfo.Fields(),
		tx.CreatedAt,
	}
}

// HourlySales groups transactions in [start, end] by UTC hour, ascending.
func (r *Repository) HourlySales(ctx context.Context, start, end time.Time) ([]domain.HourlySales, error) {
	const q = `
		SELECT date_trunc('hour', transaction_datetime AT TIME ZONE 'UTC') AS hour,
		       SUM(final_price)::text,
		       SUM(points)::bigint
		FROM transactions
		WHERE transaction_datetime BETWEEN $1 AND $2
		GROUP BY hour
		ORDER BY hour
	`
	rows, err := r.pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly sales: %w", err)
	}
	defer rows.Close()

	var out []domain.HourlySales
	for rows.Next() {
		var (
			hour   time.Time
			total  string
			points int64
		)
		if err := rows.Scan(&hour, &total, &points); err != nil {
			return nil, fmt.Errorf("failed to scan hourly sales: %w", err)
		}
		row, err := hourlyRow(hour, total, points)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hourly sales: %w", err)
	}
	return out, nil
}

// hourlyRow converts a scanned aggregate. Hours come back as UTC wall time
// without a zone.
func hourlyRow(hour time.Time, total string, points int64) (domain.HourlySales, error) {
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return domain.HourlySales{}, fmt.Errorf("invalid sales total %q: %w", total, err)
	}
	return domain.HourlySales{
		HourStart:       time.Date(hour.Year(), hour.Month(), hour.Day(), hour.Hour(), 0, 0, 0, time.UTC),
		TotalFinalPrice: sum,
		TotalPoints:     points,
	}, nil
}

// TransactionByID loads a stored transaction.
func (r *Repository) TransactionByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	const q = `
		SELECT customer_id, price::text, price_modifier::text, payment_method, transaction_datetime,
		       final_price::text, points, supplementary_info, created_at
		FROM transactions
		WHERE id = $1
	`
	var s storedTransaction
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&s.CustomerID, &s.Price, &s.PriceModifier, &s.PaymentMethod, &s.TransactionDateTime,
		&s.FinalPrice, &s.Points, &s.Supplementary, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transaction{}, ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	s.ID = id
	return s.toDomain()
}

type storedTransaction struct {
	ID                  uuid.UUID
	CustomerID          string
	Price               string
	PriceModifier       string
	PaymentMethod       string
	TransactionDateTime time.Time
	FinalPrice          string
	Points              int64
	Supplementary       map[string]string
	CreatedAt           time.Time
}

func (s storedTransaction) toDomain() (domain.Transaction, error) {
	price, err := domain.MoneyFromString(s.Price)
	if err != nil {
		return domain.Transaction{}, err
	}
	finalPrice, err := domain.MoneyFromString(s.FinalPrice)
	if err != nil {
		return domain.Transaction{}, err
	}
	modifier, err := domain.ParsePriceModifier(s.PriceModifier)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid stored modifier %q: %w", s.PriceModifier, err)
	}
	method, err := domain.ParsePaymentMethod(s.PaymentMethod)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.NewTransaction(domain.TransactionParams{
		CustomerID:          s.CustomerID,
		Price:               price,
		PriceModifier:       modifier,
		PaymentMethod:       method,
		TransactionDateTime: s.TransactionDateTime,
		FinalPrice:          finalPrice,
		Points:              s.Points,
		SupplementaryInfo:   domain.SupplementaryInfoFromFields(s.Supplementary),
	}, domain.WithID(s.ID), domain.WithCreatedAt(s.CreatedAt))
}
