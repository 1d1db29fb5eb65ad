package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"pos-payment-system/internal/core/domain"
	"pos-payment-system/internal/core/ports"
	"pos-payment-system/internal/observability"
)

// HourLayout is the wire format of an hour bucket.
const HourLayout = "2006-01-02T15:04:05Z"

type salesReportService struct {
	reader ports.SalesReader
}

// NewSalesReportService builds the reporting use case over any hourly sales
// source, the transactional store or the analytics projection.
func NewSalesReportService(reader ports.SalesReader) ports.SalesReportService {
	return &salesReportService{reader: reader}
}

func (s *salesReportService) SalesReport(ctx context.Context, req ports.SalesReportRequest) ([]ports.HourlySalesRecord, error) {
	ctx, span := observability.Tracer().Start(ctx, "SalesReport")
	defer span.End()

	start, err := ParseDateTime(req.StartDateTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseDateTime(req.EndDateTime)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("report.start", start.UTC().Format(HourLayout)),
		attribute.String("report.end", end.UTC().Format(HourLayout)),
	)

	records := []ports.HourlySalesRecord{}
	if end.Before(start) {
		return records, nil
	}

	rows, err := s.reader.HourlySales(ctx, start, end)
	if err != nil {
		observability.FromContext(ctx).Error("failed to load hourly sales", "error", err, "start", start, "end", end)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	for _, row := range rows {
		records = append(records, ports.HourlySalesRecord{
			DateTime: row.HourStart.UTC().Format(HourLayout),
			Sales:    row.TotalFinalPrice.StringFixed(2),
			Points:   row.TotalPoints,
		})
	}
	return records, nil
}
