package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleUsage is a schedule with its booking count, used by utilization reports.
type ScheduleUsage struct {
	ScheduleID  string
	Title       string
	TeacherName string
	StartTime   time.Time
	MaxCapacity int
	Booked      int
}

// UserCounts holds the raw counters behind the user statistics report.
type UserCounts struct {
	Total          int
	Verified       int
	WithPackages   int
	ActiveBookings int
}

// ReportRepository runs the read-only aggregate queries used by admin reports.
type ReportRepository interface {
	// Sales lists purchased user packages; a nil bound is open.
	Sales(ctx context.Context, from, to *time.Time) ([]model.Sale, error)
	ScheduleUsage(ctx context.Context) ([]ScheduleUsage, error)
	UserCounts(ctx context.Context, now time.Time) (UserCounts, error)
}

type reportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) ReportRepository {
	return &reportRepo{pool: pool}
}

func (r *reportRepo) Sales(ctx context.Context, from, to *time.Time) ([]model.Sale, error) {
	const q = `
		SELECT up.id, up.user_id, u.email, cp.id, cp.name, cp.price_cents, up.purchased_at
		FROM user_packages up
		JOIN users u ON u.id = up.user_id
		JOIN class_packages cp ON cp.id = up.class_package_id
		WHERE ($1::timestamptz IS NULL OR up.purchased_at >= $1)
		  AND ($2::timestamptz IS NULL OR up.purchased_at <= $2)
		ORDER BY up.purchased_at DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.UserPackageID, &s.UserID, &s.UserEmail, &s.PackageID, &s.PackageName, &s.PriceCents, &s.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *reportRepo) ScheduleUsage(ctx context.Context) ([]ScheduleUsage, error) {
	const q = `
		SELECT cs.id, cs.title, trim(t.first_name || ' ' || t.last_name), cs.start_time, cs.max_capacity,
		       COUNT(b.id)
		FROM class_schedules cs
		JOIN teachers t ON t.id = cs.teacher_id
		LEFT JOIN bookings b ON b.class_schedule_id = cs.id
		GROUP BY cs.id, t.first_name, t.last_name
		ORDER BY cs.start_time DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying schedule usage: %w", err)
	}
	defer rows.Close()

	var out []ScheduleUsage
	for rows.Next() {
		var u ScheduleUsage
		if err := rows.Scan(&u.ScheduleID, &u.Title, &u.TeacherName, &u.StartTime, &u.MaxCapacity, &u.Booked); err != nil {
			return nil, fmt.Errorf("scanning schedule usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *reportRepo) UserCounts(ctx context.Context, now time.Time) (UserCounts, error) {
	const q = `
		SELECT (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM users WHERE is_verified),
		       (SELECT COUNT(DISTINCT user_id) FROM user_packages),
		       (SELECT COUNT(*) FROM bookings b
		          JOIN class_schedules cs ON cs.id = b.class_schedule_id
		         WHERE cs.start_time > $1)`
	var c UserCounts
	if err := conn(ctx, r.pool).QueryRow(ctx, q, now).Scan(&c.Total, &c.Verified, &c.WithPackages, &c.ActiveBookings); err != nil {
		return UserCounts{}, fmt.Errorf("querying user counts: %w", err)
	}
	return c, nil
}
