package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Field paths reported by the calculator.
const (
	FieldPathPriceModifier  = "priceModifier"
	FieldPathAdditionalItem = "additionalItem"
)

// Quote is the priced outcome of an accepted payment.
type Quote struct {
	FinalPrice Money
	Points     int64
}

// Validate returns every business-rule violation for the given payment, in a
// fixed order. An empty result means the payment is acceptable.
func Validate(method PaymentMethod, modifier decimal.Decimal, info SupplementaryInfo) []FieldError {
	policy := PolicyFor(method)
	var errs []FieldError

	if !policy.IsValidModifier(modifier) {
		errs = append(errs, FieldError{
			Field: FieldPathPriceModifier,
			Message: fmt.Sprintf("Price modifier must be between %s and %s for %s",
				policy.MinModifier.StringFixed(moneyScale), policy.MaxModifier.StringFixed(moneyScale), method),
		})
	}
	if policy.RequiresLast4 && !info.ValidateLast4() {
		errs = append(errs, FieldError{
			Field:   FieldPathAdditionalItem + "." + FieldLast4,
			Message: "Card last 4 digits are required and must be exactly 4 digits",
		})
	}
	if policy.RequiresCourier && !info.ValidateCourier() {
		errs = append(errs, FieldError{
			Field:   FieldPathAdditionalItem + "." + FieldCourier,
			Message: "Courier service is required. Allowed values: " + courierList(),
		})
	}
	if policy.RequiresBankInfo && !info.ValidateBankInfo() {
		errs = append(errs, FieldError{
			Field:   FieldPathAdditionalItem,
			Message: "Bank name and account number are required for bank transfer",
		})
	}
	if policy.RequiresChequeInfo && !info.ValidateChequeInfo() {
		errs = append(errs, FieldError{
			Field:   FieldPathAdditionalItem,
			Message: "Bank name and cheque number are required for cheque payment",
		})
	}
	return errs
}

// Calculate validates the payment and, when it is acceptable, prices it.
// Points are earned on the price before the modifier is applied.
func Calculate(method PaymentMethod, price Money, modifier decimal.Decimal, info SupplementaryInfo) (Quote, error) {
	if errs := Validate(method, modifier, info); len(errs) > 0 {
		return Quote{}, &ValidationError{Errors: errs}
	}

	finalPrice, err := price.ApplyModifier(modifier)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		FinalPrice: finalPrice,
		Points:     PolicyFor(method).PointsFor(price),
	}, nil
}

func courierList() string {
	names := make([]string, 0, 2)
	for _, c := range Couriers() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
