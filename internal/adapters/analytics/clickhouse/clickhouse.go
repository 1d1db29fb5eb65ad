package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

var (
	_ ports.SalesReader     = (*Store)(nil)
	_ ports.SalesProjection = (*Store)(nil)
)

// Options are the connection settings of the analytics store.
type Options struct {
	Addr     string
	Database string
	User     string
	Password string
}

// Store keeps a projection of accepted payments for reporting.
type Store struct {
	conn driver.Conn
}

// Open connects to ClickHouse and checks the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the projection table. Rows are deduplicated by id, so
// replays from Kafka are harmless.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS sales_events (
			id                   UUID,
			customer_id          String,
			payment_method       LowCardinality(String),
			transaction_datetime DateTime64(3, 'UTC'),
			final_price          Decimal(18, 2),
			points               Int64,
			created_at           DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree
		ORDER BY (transaction_datetime, id)
	`
	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create sales_events: %w", err)
	}
	return nil
}

// InsertTransactions writes a batch of accepted payments.
func (s *Store) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO sales_events")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, tx := range txs {
		if err := batch.Append(
			tx.ID,
			tx.CustomerID,
			string(tx.PaymentMethod),
			tx.TransactionDateTime.UTC(),
			tx.FinalPrice.Amount().Round(2),
			tx.Points,
			tx.CreatedAt.UTC(),
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("failed to append %s: %w", tx.ID, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// HourlySales aggregates the projection per UTC hour within [start, end].
func (s *Store) HourlySales(ctx context.Context, start, end time.Time) ([]domain.HourlySales, error) {
	const q = `
		SELECT toStartOfHour(transaction_datetime) AS hour,
		       sum(final_price)                    AS total,
		       sum(points)                         AS points
		FROM sales_events FINAL
		WHERE transaction_datetime BETWEEN ? AND ?
		GROUP BY hour
		ORDER BY hour
	`
	rows, err := s.conn.Query(ctx, q, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly sales: %w", err)
	}
	defer rows.Close()

	var out []domain.HourlySales
	for rows.Next() {
		var (
			hour   time.Time
			total  decimal.Decimal
			points int64
		)
		if err := rows.Scan(&hour, &total, &points); err != nil {
			return nil, fmt.Errorf("failed to scan hourly sales: %w", err)
		}
		out = append(out, domain.HourlySales{
			HourStart:       domain.HourBucket(hour.UTC()),
			TotalFinalPrice: total,
			TotalPoints:     points,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hourly sales: %w", err)
	}
	return out, nil
}
