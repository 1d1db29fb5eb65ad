package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount             = errors.New("money amount cannot be negative")
	ErrInvalidPoints             = errors.New("points cannot be negative")
	ErrPaymentMethodNotSupported = errors.New("payment method is not supported")
	ErrInvalidPrice              = errors.New("invalid price value")
	ErrInvalidDateTime           = errors.New("invalid datetime")
	ErrValidationFailed          = errors.New("validation failed")
	ErrStorageUnavailable        = errors.New("database is unavailable")
	ErrBrokerUnavailable         = errors.New("kafka broker is unavailable")
)

// FieldError is a single business-rule violation bound to a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found for a payment, in check order.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// PaymentMethodError is returned for a method name outside the supported set.
type PaymentMethodError struct {
	Method string
}

func (e *PaymentMethodError) Error() string {
	return fmt.Sprintf("Payment method '%s' is not supported", e.Method)
}

func (e *PaymentMethodError) Unwrap() error { return ErrPaymentMethodNotSupported }

// InvalidPriceError is returned for a malformed price or price modifier.
type InvalidPriceError struct {
	Message string
}

func (e *InvalidPriceError) Error() string {
	if e.Message == "" {
		return ErrInvalidPrice.Error()
	}
	return e.Message
}

func (e *InvalidPriceError) Unwrap() error { return ErrInvalidPrice }

// InvalidDateTimeError is returned when a timestamp is not ISO-8601.
type InvalidDateTimeError struct {
	Value string
}

func (e *InvalidDateTimeError) Error() string {
	return fmt.Sprintf("Invalid datetime format: %s", e.Value)
}

func (e *InvalidDateTimeError) Unwrap() error { return ErrInvalidDateTime }
