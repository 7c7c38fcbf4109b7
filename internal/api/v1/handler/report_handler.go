package handler

import (
	"context"
	"time"

	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/rs/zerolog"
)

// ReportHandler serves the admin reports.
type ReportHandler struct {
	reportService service.ReportService
	location      *time.Location
	logger        zerolog.Logger
}

func NewReportHandler(reportService service.ReportService, location *time.Location, logger zerolog.Logger) *ReportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ReportHandler{reportService: reportService, location: location, logger: logger}
}

func (h *ReportHandler) Sales(ctx context.Context, input *operation.SalesReportInput) (*operation.SalesReportOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err := parseRange(input.RangeInput, h.location)
	if err != nil {
		return nil, err
	}
	report, err := h.reportService.Sales(ctx, p, from, to)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build sales report")
	}
	return &operation.SalesReportOutput{Body: *report}, nil
}

func (h *ReportHandler) ClassUtilization(ctx context.Context, input *operation.ReportInput) (*operation.UtilizationReportOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	report, err := h.reportService.ClassUtilization(ctx, p)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build utilization report")
	}
	return &operation.UtilizationReportOutput{Body: *report}, nil
}

func (h *ReportHandler) UserStatistics(ctx context.Context, input *operation.ReportInput) (*operation.UserStatisticsOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := h.reportService.UserStatistics(ctx, p)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build user statistics")
	}
	return &operation.UserStatisticsOutput{Body: *stats}, nil
}

func (h *ReportHandler) Revenue(ctx context.Context, input *operation.RevenueInput) (*operation.RevenueOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	points, err := h.reportService.RevenueByPeriod(ctx, p, service.Period(input.Period))
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build revenue report")
	}
	return &operation.RevenueOutput{Body: points}, nil
}

func (h *ReportHandler) Dashboard(ctx context.Context, input *operation.ReportInput) (*operation.DashboardOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	d, err := h.reportService.Dashboard(ctx, p)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build dashboard")
	}
	return &operation.DashboardOutput{Body: *d}, nil
}
