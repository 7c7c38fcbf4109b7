package operation

import (
	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/service"
)

type SalesReportInput struct {
	RangeInput
}

type SalesReportOutput struct {
	Body service.SalesReport `json:"body"`
}

type ReportInput struct{}

type UtilizationReportOutput struct {
	Body service.UtilizationReport `json:"body"`
}

type UserStatisticsOutput struct {
	Body model.UserStatistics `json:"body"`
}

type RevenueInput struct {
	Period string `query:"period" default:"monthly" enum:"daily,weekly,monthly" doc:"Grouping period"`
}

type RevenueOutput struct {
	Body []service.RevenuePoint `json:"body"`
}

type DashboardOutput struct {
	Body service.Dashboard `json:"body"`
}
