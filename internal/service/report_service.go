package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type PackageSales struct {
	PackageID    string `json:"package_id"`
	PackageName  string `json:"package_name"`
	Count        int    `json:"count"`
	RevenueCents int64  `json:"revenue_cents"`
}

type SalesReport struct {
	TotalRevenueCents int64          `json:"total_revenue_cents"`
	PackagesSold      int            `json:"packages_sold"`
	ByPackage         []PackageSales `json:"by_package"`
	Sales             []model.Sale   `json:"sales"`
}

type ClassUtilization struct {
	ScheduleID      string    `json:"schedule_id"`
	Title           string    `json:"title"`
	TeacherName     string    `json:"teacher_name"`
	StartTime       time.Time `json:"start_time"`
	MaxCapacity     int       `json:"max_capacity"`
	Booked          int       `json:"booked"`
	UtilizationRate float64   `json:"utilization_rate"`
}

type UtilizationReport struct {
	Classes                []ClassUtilization `json:"classes"`
	AverageUtilizationRate float64            `json:"average_utilization_rate"`
}

type RevenuePoint struct {
	Period       string `json:"period"`
	RevenueCents int64  `json:"revenue_cents"`
	Count        int    `json:"count"`
}

type Dashboard struct {
	Sales       *SalesReport          `json:"sales"`
	Utilization *UtilizationReport    `json:"utilization"`
	Users       *model.UserStatistics `json:"users"`
	Revenue     []RevenuePoint        `json:"revenue"`
}

// ReportService builds the admin reports. Every method requires an admin principal.
type ReportService interface {
	Sales(ctx context.Context, p model.Principal, from, to *time.Time) (*SalesReport, error)
	ClassUtilization(ctx context.Context, p model.Principal) (*UtilizationReport, error)
	UserStatistics(ctx context.Context, p model.Principal) (*model.UserStatistics, error)
	RevenueByPeriod(ctx context.Context, p model.Principal, period Period) ([]RevenuePoint, error)
	// Dashboard runs the other reports concurrently, revenue grouped by month.
	Dashboard(ctx context.Context, p model.Principal) (*Dashboard, error)
}

type reportService struct {
	repo     repository.ReportRepository
	settings StudioSettings
	logger   zerolog.Logger
	now      func() time.Time
}

func NewReportService(repo repository.ReportRepository, settings StudioSettings, logger zerolog.Logger) ReportService {
	return &reportService{
		repo:     repo,
		settings: settings,
		logger:   logger.With().Str("service", "ReportService").Logger(),
		now:      time.Now,
	}
}

func (s *reportService) Sales(ctx context.Context, p model.Principal, from, to *time.Time) (*SalesReport, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrInvalidRange
	}
	sales, err := s.repo.Sales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return summarizeSales(sales), nil
}

func summarizeSales(sales []model.Sale) *SalesReport {
	report := &SalesReport{Sales: sales, ByPackage: []PackageSales{}}
	if report.Sales == nil {
		report.Sales = []model.Sale{}
	}
	index := map[string]int{}
	for _, sale := range sales {
		report.TotalRevenueCents += sale.PriceCents
		report.PackagesSold++
		i, ok := index[sale.PackageID]
		if !ok {
			i = len(report.ByPackage)
			index[sale.PackageID] = i
			report.ByPackage = append(report.ByPackage, PackageSales{PackageID: sale.PackageID, PackageName: sale.PackageName})
		}
		report.ByPackage[i].Count++
		report.ByPackage[i].RevenueCents += sale.PriceCents
	}
	sort.SliceStable(report.ByPackage, func(i, j int) bool {
		return report.ByPackage[i].RevenueCents > report.ByPackage[j].RevenueCents
	})
	return report
}

func (s *reportService) ClassUtilization(ctx context.Context, p model.Principal) (*UtilizationReport, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	usage, err := s.repo.ScheduleUsage(ctx)
	if err != nil {
		return nil, err
	}
	report := &UtilizationReport{Classes: make([]ClassUtilization, 0, len(usage))}
	var sum float64
	for _, u := range usage {
		rate := 0.0
		if u.MaxCapacity > 0 {
			rate = float64(u.Booked) / float64(u.MaxCapacity) * 100
		}
		sum += rate
		report.Classes = append(report.Classes, ClassUtilization{
			ScheduleID:      u.ScheduleID,
			Title:           u.Title,
			TeacherName:     u.TeacherName,
			StartTime:       u.StartTime,
			MaxCapacity:     u.MaxCapacity,
			Booked:          u.Booked,
			UtilizationRate: rate,
		})
	}
	if len(usage) > 0 {
		report.AverageUtilizationRate = sum / float64(len(usage))
	}
	return report, nil
}

func (s *reportService) UserStatistics(ctx context.Context, p model.Principal) (*model.UserStatistics, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	c, err := s.repo.UserCounts(ctx, s.now())
	if err != nil {
		return nil, err
	}
	stats := &model.UserStatistics{
		TotalUsers:        c.Total,
		VerifiedUsers:     c.Verified,
		UsersWithPackages: c.WithPackages,
		ActiveBookings:    c.ActiveBookings,
	}
	if c.Total > 0 {
		stats.VerificationRate = float64(c.Verified) / float64(c.Total) * 100
		stats.ConversionRate = float64(c.WithPackages) / float64(c.Total) * 100
	}
	return stats, nil
}

func (s *reportService) RevenueByPeriod(ctx context.Context, p model.Principal, period Period) ([]RevenuePoint, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	sales, err := s.repo.Sales(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return revenueByPeriod(sales, period, s.settings.location())
}

func periodKey(t time.Time, period Period) (string, error) {
	switch period {
	case PeriodDaily:
		return t.Format("2006-01-02"), nil
	case PeriodWeekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w), nil
	case PeriodMonthly:
		return t.Format("2006-01"), nil
	}
	return "", invalid("unknown period %q", period)
}

// revenueByPeriod buckets sales in the studio time zone, oldest bucket first.
func revenueByPeriod(sales []model.Sale, period Period, loc *time.Location) ([]RevenuePoint, error) {
	if _, err := periodKey(time.Time{}, period); err != nil {
		return nil, err
	}
	buckets := map[string]*RevenuePoint{}
	for _, sale := range sales {
		key, _ := periodKey(sale.PurchasedAt.In(loc), period)
		b, ok := buckets[key]
		if !ok {
			b = &RevenuePoint{Period: key}
			buckets[key] = b
		}
		b.RevenueCents += sale.PriceCents
		b.Count++
	}
	points := make([]RevenuePoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, *b)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

func (s *reportService) Dashboard(ctx context.Context, p model.Principal) (*Dashboard, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.Sales(gctx, p, nil, nil)
		d.Sales = r
		return err
	})
	g.Go(func() error {
		r, err := s.ClassUtilization(gctx, p)
		d.Utilization = r
		return err
	})
	g.Go(func() error {
		r, err := s.UserStatistics(gctx, p)
		d.Users = r
		return err
	})
	g.Go(func() error {
		r, err := s.RevenueByPeriod(gctx, p, PeriodMonthly)
		d.Revenue = r
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to build dashboard")
		return nil, err
	}
	return &d, nil
}
