package domain

import (
	"encoding/json"
	"regexp"
)

// Field names used in validation errors and in the stored supplementary blob.
const (
	FieldLast4         = "last4"
	FieldCourier       = "courier"
	FieldBank          = "bank"
	FieldAccountNumber = "accountNumber"
	FieldChequeNumber  = "chequeNumber"
)

// Courier is a delivery company accepted for cash on delivery.
type Courier string

const (
	CourierYamato Courier = "YAMATO"
	CourierSagawa Courier = "SAGAWA"
)

// Couriers lists the recognized couriers.
func Couriers() []Courier {
	return []Courier{CourierYamato, CourierSagawa}
}

// ParseCourier reports whether s names a recognized courier.
func ParseCourier(s string) (Courier, bool) {
	for _, c := range Couriers() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

var last4Pattern = regexp.MustCompile(`^[0-9]{4}$`)

// SupplementaryInfo is the normalized, method-specific data attached to a
// payment. Empty strings mean absent. Values are immutable once built.
type SupplementaryInfo struct {
	last4         string
	courier       Courier
	bank          string
	accountNumber string
	chequeNumber  string
}

// SupplementaryFields is the plain input to NewSupplementaryInfo.
type SupplementaryFields struct {
	Last4         string
	Courier       Courier
	Bank          string
	AccountNumber string
	ChequeNumber  string
}

// NewSupplementaryInfo builds the value. A courier outside Couriers() is dropped.
func NewSupplementaryInfo(f SupplementaryFields) SupplementaryInfo {
	courier, _ := ParseCourier(string(f.Courier))
	return SupplementaryInfo{
		last4:         f.Last4,
		courier:       courier,
		bank:          f.Bank,
		accountNumber: f.AccountNumber,
		chequeNumber:  f.ChequeNumber,
	}
}

func (s SupplementaryInfo) Last4() string         { return s.last4 }
func (s SupplementaryInfo) Courier() Courier      { return s.courier }
func (s SupplementaryInfo) Bank() string          { return s.bank }
func (s SupplementaryInfo) AccountNumber() string { return s.accountNumber }
func (s SupplementaryInfo) ChequeNumber() string  { return s.chequeNumber }

// IsEmpty is true when no field is present.
func (s SupplementaryInfo) IsEmpty() bool {
	return s == SupplementaryInfo{}
}

// ValidateLast4 is true iff last4 is exactly four ASCII digits.
func (s SupplementaryInfo) ValidateLast4() bool {
	return last4Pattern.MatchString(s.last4)
}

// ValidateCourier is true iff a recognized courier is present.
func (s SupplementaryInfo) ValidateCourier() bool {
	return s.courier != ""
}

// ValidateBankInfo is true iff both bank and account number are present.
func (s SupplementaryInfo) ValidateBankInfo() bool {
	return s.bank != "" && s.accountNumber != ""
}

// ValidateChequeInfo is true iff both bank and cheque number are present.
func (s SupplementaryInfo) ValidateChequeInfo() bool {
	return s.bank != "" && s.chequeNumber != ""
}

// Fields returns the present fields keyed by their canonical names.
func (s SupplementaryInfo) Fields() map[string]string {
	out := make(map[string]string, 5)
	if s.last4 != "" {
		out[FieldLast4] = s.last4
	}
	if s.courier != "" {
		out[FieldCourier] = string(s.courier)
	}
	if s.bank != "" {
		out[FieldBank] = s.bank
	}
	if s.accountNumber != "" {
		out[FieldAccountNumber] = s.accountNumber
	}
	if s.chequeNumber != "" {
		out[FieldChequeNumber] = s.chequeNumber
	}
	return out
}

// SupplementaryInfoFromFields is the inverse of Fields, used when reading
// stored blobs back.
func SupplementaryInfoFromFields(fields map[string]string) SupplementaryInfo {
	return NewSupplementaryInfo(SupplementaryFields{
		Last4:         fields[FieldLast4],
		Courier:       Courier(fields[FieldCourier]),
		Bank:          fields[FieldBank],
		AccountNumber: fields[FieldAccountNumber],
		ChequeNumber:  fields[FieldChequeNumber],
	})
}

// MarshalJSON implements the json.Marshaler interface.
func (s SupplementaryInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *SupplementaryInfo) UnmarshalJSON(b []byte) error {
	var fields map[string]string
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*s = SupplementaryInfoFromFields(fields)
	return nil
}
