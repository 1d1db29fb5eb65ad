package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-payment-system/internal/core/domain"
)

func TestNewPaymentPayload_AlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	at := time.Date(2022, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		p := newPaymentPayload(rng, at)

		method, err := domain.ParsePaymentMethod(p.PaymentMethod)
		require.NoError(t, err)
		modifier, err := decimal.NewFromString(p.PriceModifier.String())
		require.NoError(t, err)
		price, err := domain.MoneyFromString(p.Price)
		require.NoError(t, err)

		info := domain.NewSupplementaryInfo(domain.SupplementaryFields{
			Last4:         p.AdditionalItem[domain.FieldLast4],
			Courier:       domain.Courier(p.AdditionalItem[domain.FieldCourier]),
			Bank:          p.AdditionalItem[domain.FieldBank],
			AccountNumber: p.AdditionalItem[domain.FieldAccountNumber],
			ChequeNumber:  p.AdditionalItem[domain.FieldChequeNumber],
		})
		assert.Empty(t, domain.Validate(method, modifier, info), "payload %+v", p)

		_, err = domain.Calculate(method, price, modifier, info)
		assert.NoError(t, err)
		assert.Equal(t, "2022-09-01T10:00:00Z", p.DateTime)
	}
}
