package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*ports.PaymentResponse)
	return resp, args.Error(1)
}

type MockSalesReportService struct {
	mock.Mock
}

func (m *MockSalesReportService) SalesReport(ctx context.Context, req ports.SalesReportRequest) ([]ports.HourlySalesRecord, error) {
	args := m.Called(ctx, req)
	rows, _ := args.Get(0).([]ports.HourlySalesRecord)
	return rows, args.Error(1)
}

func newTestHandler() (*PaymentHandler, *MockPaymentService, *MockSalesReportService) {
	payments := new(MockPaymentService)
	reports := new(MockSalesReportService)
	return NewPaymentHandler(payments, reports, slog.Default()), payments, reports
}

const visaBody = `{
	"customerId": "12345",
	"price": "100.00",
	"priceModifier": 0.98,
	"paymentMethod": "VISA",
	"datetime": "2022-09-01T00:00:00Z",
	"additionalItem": {"last4": "1234"}
}`

func doRequest(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleProcessPayment_Success(t *testing.T) {
	h, payments, _ := newTestHandler()

	payments.On("ProcessPayment", mock.Anything, ports.PaymentRequest{
		CustomerID:     "12345",
		Price:          "100.00",
		PriceModifier:  "0.98",
		PaymentMethod:  "VISA",
		DateTime:       "2022-09-01T00:00:00Z",
		AdditionalItem: map[string]any{"last4": "1234"},
	}).Return(&ports.PaymentResponse{FinalPrice: "98.00", Points: 3}, nil)

	rec := doRequest(h.HandleProcessPayment, visaBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"finalPrice":"98.00","points":3}`, rec.Body.String())
	payments.AssertExpectations(t)
}

func TestHandleProcessPayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name: "validation failed",
			err: &domain.ValidationError{Errors: []domain.FieldError{
				{Field: "additionalItem.last4", Message: "Card last 4 digits are required and must be exactly 4 digits"},
			}},
			wantCode: http.StatusUnprocessableEntity,
			wantBody: `{"error":"Validation failed","details":[{"field":"additionalItem.last4","message":"Card last 4 digits are required and must be exactly 4 digits"}]}`,
		},
		{
			name:     "unsupported method",
			err:      &domain.PaymentMethodError{Method: "INVALID"},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Payment method 'INVALID' is not supported"}`,
		},
		{
			name:     "invalid price",
			err:      &domain.InvalidPriceError{Message: "Invalid price format: x"},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Invalid price format: x"}`,
		},
		{
			name:     "invalid datetime",
			err:      &domain.InvalidDateTimeError{Value: "soon"},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Invalid datetime format: soon"}`,
		},
		{
			name:     "storage down",
			err:      domain.ErrStorageUnavailable,
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"error":"service temporarily unavailable"}`,
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, payments, _ := newTestHandler()
			payments.On("ProcessPayment", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := doRequest(h.HandleProcessPayment, visaBody)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleProcessPayment_BadRequests(t *testing.T) {
	h, payments, _ := newTestHandler()

	rec := doRequest(h.HandleProcessPayment, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())

	rec = doRequest(h.HandleProcessPayment, `{"customerId":"1","price":"1.00","paymentMethod":"CASH","datetime":"2022-09-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing required fields", resp.Error)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "priceModifier", resp.Details[0].Field)

	payments.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything)
}

func TestHandleSalesReport(t *testing.T) {
	h, _, reports := newTestHandler()
	reports.On("SalesReport", mock.Anything, ports.SalesReportRequest{
		StartDateTime: "2022-09-01T00:00:00Z",
		EndDateTime:   "2022-09-01T23:59:59Z",
	}).Return([]ports.HourlySalesRecord{
		{DateTime: "2022-09-01T10:00:00Z", Sales: "95.00", Points: 5},
	}, nil)

	rec := doRequest(h.HandleSalesReport, `{"startDateTime":"2022-09-01T00:00:00Z","endDateTime":"2022-09-01T23:59:59Z"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sales":[{"datetime":"2022-09-01T10:00:00Z","sales":"95.00","points":5}]}`, rec.Body.String())
}

func TestHandleSalesReport_EmptyIsList(t *testing.T) {
	h, _, reports := newTestHandler()
	reports.On("SalesReport", mock.Anything, mock.Anything).Return([]ports.HourlySalesRecord{}, nil)

	rec := doRequest(h.HandleSalesReport, `{"startDateTime":"2030-01-01T00:00:00Z","endDateTime":"2030-01-02T00:00:00Z"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sales":[]}`, rec.Body.String())
}

func TestHandleListPaymentMethods(t *testing.T) {
	h, _, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleListPaymentMethods(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		PaymentMethods []paymentMethodView `json:"paymentMethods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.PaymentMethods, 12)
	assert.Equal(t, paymentMethodView{
		Method:         "AMEX",
		MinModifier:    "0.98",
		MaxModifier:    "1.01",
		PointRate:      "0.02",
		RequiredFields: []string{"last4"},
	}, body.PaymentMethods[4])
}

func TestHandlers_RejectOversizedBody(t *testing.T) {
	h, payments, reports := newTestHandler()
	huge := `{"customerId":"12345","price":"1e20000000","priceModifier":1,"paymentMethod":"CASH",` +
		`"datetime":"2022-09-01T00:00:00Z","additionalItem":{"pad":"` + strings.Repeat("9", maxBodyBytes) + `"}}`

	for name, handle := range map[string]http.HandlerFunc{
		"payment": h.HandleProcessPayment,
		"report":  h.HandleSalesReport,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(handle, huge)
			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.JSONEq(t, `{"error":"request body too large"}`, rec.Body.String())
		})
	}
	payments.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything)
	reports.AssertNotCalled(t, "SalesReport", mock.Anything, mock.Anything)
}
