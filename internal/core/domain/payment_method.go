package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the closed set of tenders accepted at the point of sale.
type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "CASH"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodVisa           PaymentMethod = "VISA"
	PaymentMethodMastercard     PaymentMethod = "MASTERCARD"
	PaymentMethodAmex           PaymentMethod = "AMEX"
	PaymentMethodJCB            PaymentMethod = "JCB"
	PaymentMethodLinePay        PaymentMethod = "LINE_PAY"
	PaymentMethodPayPay         PaymentMethod = "PAYPAY"
	PaymentMethodPoints         PaymentMethod = "POINTS"
	PaymentMethodGrabPay        PaymentMethod = "GRAB_PAY"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque         PaymentMethod = "CHEQUE"
)

var paymentMethods = [...]PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCashOnDelivery,
	PaymentMethodVisa,
	PaymentMethodMastercard,
	PaymentMethodAmex,
	PaymentMethodJCB,
	PaymentMethodLinePay,
	PaymentMethodPayPay,
	PaymentMethodPoints,
	PaymentMethodGrabPay,
	PaymentMethodBankTransfer,
	PaymentMethodCheque,
}

// AllPaymentMethods lists every method in declaration order.
func AllPaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods[:])
	return out
}

// ParsePaymentMethod resolves an exact method name. Unknown names yield a
// *PaymentMethodError echoing the input.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if _, ok := policies[m]; !ok {
		return "", &PaymentMethodError{Method: s}
	}
	return m, nil
}

func (m PaymentMethod) String() string { return string(m) }

// PaymentMethodPolicy holds the pricing and data rules of one payment method.
type PaymentMethodPolicy struct {
	Method             PaymentMethod
	MinModifier        decimal.Decimal
	MaxModifier        decimal.Decimal
	PointRate          decimal.Decimal
	RequiresLast4      bool
	RequiresCourier    bool
	RequiresBankInfo   bool
	RequiresChequeInfo bool
}

// IsValidModifier reports whether MinModifier <= m <= MaxModifier.
func (p PaymentMethodPolicy) IsValidModifier(m decimal.Decimal) bool {
	return m.GreaterThanOrEqual(p.MinModifier) && m.LessThanOrEqual(p.MaxModifier)
}

// PointsFor is price*PointRate truncated toward zero.
func (p PaymentMethodPolicy) PointsFor(price Money) int64 {
	return price.Amount().Mul(p.PointRate).IntPart()
}

// RequiredFields names the supplementary fields the method demands.
func (p PaymentMethodPolicy) RequiredFields() []string {
	fields := []string{}
	if p.RequiresLast4 {
		fields = append(fields, FieldLast4)
	}
	if p.RequiresCourier {
		fields = append(fields, FieldCourier)
	}
	if p.RequiresBankInfo {
		fields = append(fields, FieldBank, FieldAccountNumber)
	}
	if p.RequiresChequeInfo {
		fields = append(fields, FieldBank, FieldChequeNumber)
	}
	return fields
}

// policies is filled once in init and only read afterwards.
var policies map[PaymentMethod]PaymentMethodPolicy

func init() {
	policies = make(map[PaymentMethod]PaymentMethodPolicy, len(paymentMethods))
	for _, m := range paymentMethods {
		policies[m] = newPolicy(m)
	}
}

func newPolicy(m PaymentMethod) PaymentMethodPolicy {
	p := PaymentMethodPolicy{Method: m}
	switch m {
	case PaymentMethodCash:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("0.90"), dec("1.00"), dec("0.05")
	case PaymentMethodCashOnDelivery:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("1.00"), dec("1.02"), dec("0.05")
		p.RequiresCourier = true
	case PaymentMethodVisa, PaymentMethodMastercard:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("0.95"), dec("1.00"), dec("0.03")
		p.RequiresLast4 = true
	case PaymentMethodAmex:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("0.98"), dec("1.01"), dec("0.02")
		p.RequiresLast4 = true
	case PaymentMethodJCB:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("0.95"), dec("1.00"), dec("0.05")
		p.RequiresLast4 = true
	case PaymentMethodLinePay, PaymentMethodPayPay, PaymentMethodGrabPay:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("1.00"), dec("1.00"), dec("0.01")
	case PaymentMethodPoints:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("1.00"), dec("1.00"), dec("0.00")
	case PaymentMethodBankTransfer:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("1.00"), dec("1.00"), dec("0.00")
		p.RequiresBankInfo = true
	case PaymentMethodCheque:
		p.MinModifier, p.MaxModifier, p.PointRate = dec("0.90"), dec("1.00"), dec("0.00")
		p.RequiresChequeInfo = true
	default:
		panic(fmt.Sprintf("domain: no policy for payment method %q", m))
	}
	if p.MinModifier.GreaterThan(p.MaxModifier) {
		panic(fmt.Sprintf("domain: policy for %q has min modifier above max", m))
	}
	return p
}

// PolicyFor returns the policy of a parsed method. Asking for a value that did
// not come from ParsePaymentMethod or the constants is a programming error.
func PolicyFor(m PaymentMethod) PaymentMethodPolicy {
	p, ok := policies[m]
	if !ok {
		panic(fmt.Sprintf("domain: no policy for payment method %q", m))
	}
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
