package app

import (
	"strings"
	"time"

	"pos-payment-system/internal/core/domain"
)

// Accepted timestamp layouts, tried in order. Layouts without an offset are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses an ISO-8601 timestamp. A trailing "Z" means UTC.
func ParseDateTime(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &domain.InvalidDateTimeError{Value: s}
}

// RawSupplementaryInfo is the untyped additional-item bag as it arrives from a
// client. Normalize turns it into a domain.SupplementaryInfo.
type RawSupplementaryInfo map[string]any

var (
	accountNumberKeys = []string{"accountNumber", "account_number"}
	chequeNumberKeys  = []string{"chequeNumber", "cheque_number"}
)

// Normalize resolves key aliases, drops unknown couriers and ignores values
// that are not strings. A nil bag yields an empty value.
func (r RawSupplementaryInfo) Normalize() domain.SupplementaryInfo {
	if r == nil {
		return domain.SupplementaryInfo{}
	}
	return domain.NewSupplementaryInfo(domain.SupplementaryFields{
		Last4:         r.first(domain.FieldLast4),
		Courier:       domain.Courier(r.first(domain.FieldCourier)),
		Bank:          r.first(domain.FieldBank),
		AccountNumber: r.first(accountNumberKeys...),
		ChequeNumber:  r.first(chequeNumberKeys...),
	})
}

// first returns the first non-empty string value among keys.
func (r RawSupplementaryInfo) first(keys ...string) string {
	for _, k := range keys {
		if s, ok := r[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
