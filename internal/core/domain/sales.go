package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HourlySales is one hour bucket of accepted payments.
type HourlySales struct {
	HourStart       time.Time
	TotalFinalPrice decimal.Decimal
	TotalPoints     int64
}
