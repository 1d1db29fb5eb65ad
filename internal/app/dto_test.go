package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-payment-system/internal/core/domain"
)

func TestParseDateTime(t *testing.T) {
	jst := time.FixedZone("", 9*3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2022-09-01T00:00:00Z", time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"2022-09-01T10:30:15.250Z", time.Date(2022, 9, 1, 10, 30, 15, 250_000_000, time.UTC)},
		{"2022-09-01T09:00:00+09:00", time.Date(2022, 9, 1, 9, 0, 0, 0, jst)},
		{"2022-09-01T10:30:15", time.Date(2022, 9, 1, 10, 30, 15, 0, time.UTC)},
		{"2022-09-01 10:30:15", time.Date(2022, 9, 1, 10, 30, 15, 0, time.UTC)},
		{"2022-09-01", time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01 10:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00Z", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01T19:00+09:00", time.Date(2024, 1, 1, 19, 0, 0, 0, jst)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	for _, bad := range []string{"", "tomorrow", "2022-13-01T00:00:00Z", "01/09/2022"} {
		_, err := ParseDateTime(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidDateTime, bad)
	}
}

func TestRawSupplementaryInfo_Normalize(t *testing.T) {
	assert.True(t, RawSupplementaryInfo(nil).Normalize().IsEmpty())

	info := RawSupplementaryInfo{
		"last4":          "1234",
		"courier":        "UPS",
		"bank":           "SMBC",
		"account_number": "777",
		"cheque_number":  "C-1",
		"unrelated":      "x",
	}.Normalize()
	assert.Equal(t, "1234", info.Last4())
	assert.Equal(t, domain.Courier(""), info.Courier())
	assert.Equal(t, "777", info.AccountNumber())
	assert.Equal(t, "C-1", info.ChequeNumber())

	camelWins := RawSupplementaryInfo{"accountNumber": "1", "account_number": "2"}.Normalize()
	assert.Equal(t, "1", camelWins.AccountNumber())

	emptyCamel := RawSupplementaryInfo{"chequeNumber": "", "cheque_number": "9"}.Normalize()
	assert.Equal(t, "9", emptyCamel.ChequeNumber())

	nonString := RawSupplementaryInfo{"last4": 1234, "courier": "YAMATO"}.Normalize()
	assert.Equal(t, "", nonString.Last4())
	assert.Equal(t, domain.CourierYamato, nonString.Courier())
}
