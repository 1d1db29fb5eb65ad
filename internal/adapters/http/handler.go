package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
	"pos-payment-system/internal/observability"
)

// PaymentHandler serves the payment and reporting endpoints.
type PaymentHandler struct {
	payments ports.PaymentService
	reports  ports.SalesReportService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPaymentHandler(payments ports.PaymentService, reports ports.SalesReportService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		reports:  reports,
		validate: newValidator(),
		logger:   logger,
	}
}

type paymentRequest struct {
	CustomerID     string         `json:"customerId" validate:"required"`
	Price          string         `json:"price" validate:"required"`
	PriceModifier  json.Number    `json:"priceModifier" validate:"required"`
	PaymentMethod  string         `json:"paymentMethod" validate:"required"`
	DateTime       string         `json:"datetime" validate:"required"`
	AdditionalItem map[string]any `json:"additionalItem"`
}

type paymentResponse struct {
	FinalPrice string `json:"finalPrice"`
	Points     int64  `json:"points"`
}

func (h *PaymentHandler) HandleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if resp, status := decodeAndValidate(w, r, h.validate, &req); resp != nil {
		writeJSON(w, status, resp)
		return
	}

	res, err := h.payments.ProcessPayment(r.Context(), ports.PaymentRequest{
		CustomerID:     req.CustomerID,
		Price:          req.Price,
		PriceModifier:  req.PriceModifier.String(),
		PaymentMethod:  req.PaymentMethod,
		DateTime:       req.DateTime,
		AdditionalItem: req.AdditionalItem,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{FinalPrice: res.FinalPrice, Points: res.Points})
}

type salesReportRequest struct {
	StartDateTime string `json:"startDateTime" validate:"required"`
	EndDateTime   string `json:"endDateTime" validate:"required"`
}

type hourlySales struct {
	DateTime string `json:"datetime"`
	Sales    string `json:"sales"`
	Points   int64  `json:"points"`
}

type salesReportResponse struct {
	Sales []hourlySales `json:"sales"`
}

func (h *PaymentHandler) HandleSalesReport(w http.ResponseWriter, r *http.Request) {
	var req salesReportRequest
	if resp, status := decodeAndValidate(w, r, h.validate, &req); resp != nil {
		writeJSON(w, status, resp)
		return
	}

	records, err := h.reports.SalesReport(r.Context(), ports.SalesReportRequest{
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := salesReportResponse{Sales: make([]hourlySales, 0, len(records))}
	for _, rec := range records {
		out.Sales = append(out.Sales, hourlySales{DateTime: rec.DateTime, Sales: rec.Sales, Points: rec.Points})
	}
	writeJSON(w, http.StatusOK, out)
}

type paymentMethodView struct {
	Method         string   `json:"method"`
	MinModifier    string   `json:"minModifier"`
	MaxModifier    string   `json:"maxModifier"`
	PointRate      string   `json:"pointRate"`
	RequiredFields []string `json:"requiredFields"`
}

// HandleListPaymentMethods exposes the policy table to terminals.
func (h *PaymentHandler) HandleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods := domain.AllPaymentMethods()
	out := make([]paymentMethodView, 0, len(methods))
	for _, m := range methods {
		p := domain.PolicyFor(m)
		out = append(out, paymentMethodView{
			Method:         string(m),
			MinModifier:    p.MinModifier.StringFixed(2),
			MaxModifier:    p.MaxModifier.StringFixed(2),
			PointRate:      p.PointRate.StringFixed(2),
			RequiredFields: p.RequiredFields(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"paymentMethods": out})
}

func (h *PaymentHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		logger.Debug("payment rejected", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Validation failed", Details: vErr.Errors})

	case errors.Is(err, domain.ErrPaymentMethodNotSupported),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidDateTime):
		logger.Debug("invalid payment request", "error", err)
		writeJSONError(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, domain.ErrStorageUnavailable):
		logger.Warn("temporary failure in external dependency", "error", err)
		writeJSONError(w, "service temporarily unavailable", http.StatusServiceUnavailable)

	default:
		h.logger.Error("unexpected error", "error", err, "path", r.URL.Path)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
