package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pos-payment-system/internal/core/domain"
)

// ErrorResponse is the failure body of every endpoint. Details is set only for
// field-level failures.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to write json response", "error", err)
	}
}

// writeJSONError is a helper for sending errors in JSON format.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// maxBodyBytes caps request bodies. Payment and report requests are a few
// hundred bytes.
const maxBodyBytes = 16 << 10

// decodeAndValidate reads a JSON body of at most maxBodyBytes into dst and
// runs struct validation. A non-nil *ErrorResponse comes with the status to
// write it with.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) (*ErrorResponse, int) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &ErrorResponse{Error: "request body too large"}, http.StatusRequestEntityTooLarge
		}
		return &ErrorResponse{Error: "invalid request body"}, http.StatusBadRequest
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ErrorResponse{Error: "invalid request body"}, http.StatusBadRequest
		}
		resp := &ErrorResponse{Error: "missing required fields"}
		for _, fe := range verrs {
			resp.Details = append(resp.Details, domain.FieldError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		return resp, http.StatusBadRequest
	}
	return nil, 0
}
