package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository persists bookings and their joined read views.
type BookingRepository interface {
	// CreateBooking inserts the booking; a second booking for the same user and
	// schedule yields ErrBookingExists.
	CreateBooking(ctx context.Context, userID, scheduleID string) (*model.Booking, error)
	GetBookingByID(ctx context.Context, id string) (*model.Booking, error)
	GetBookingDetail(ctx context.Context, id string) (*model.BookingDetail, error)
	BookingExists(ctx context.Context, userID, scheduleID string) (bool, error)
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
	// ListBySchedules returns detailed bookings for every schedule id given.
	ListBySchedules(ctx context.Context, scheduleIDs []string) ([]model.BookingDetail, error)
	ListBookings(ctx context.Context, page, perPage int) ([]model.BookingDetail, int, error)
	ListBookingsByUser(ctx context.Context, userID string, page, perPage int) ([]model.BookingDetail, int, error)
	DeleteBooking(ctx context.Context, id string) error
	DeleteBySchedule(ctx context.Context, scheduleID string) (int64, error)
}

type bookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepo{pool: pool}
}

const bookingDetailSelect = `
	SELECT b.id, b.user_id, b.class_schedule_id, b.created_at,
	       u.id, u.email, u.first_name, u.last_name, u.telephone, u.role, u.is_verified, u.created_at, u.updated_at,
	       ` + scheduleColumns + `,
	       t.id, t.first_name, t.last_name, t.created_at, t.updated_at
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN class_schedules cs ON cs.id = b.class_schedule_id
	JOIN teachers t ON t.id = cs.teacher_id`

func scanBookingDetail(row pgx.Row) (*model.BookingDetail, error) {
	var d model.BookingDetail
	err := row.Scan(
		&d.ID, &d.UserID, &d.ClassScheduleID, &d.CreatedAt,
		&d.User.ID, &d.User.Email, &d.User.FirstName, &d.User.LastName, &d.User.Telephone,
		&d.User.Role, &d.User.IsVerified, &d.User.CreatedAt, &d.User.UpdatedAt,
		&d.Schedule.ID, &d.Schedule.TeacherID, &d.Schedule.Title, &d.Schedule.StartTime, &d.Schedule.EndTime,
		&d.Schedule.MaxCapacity, &d.Schedule.CreatedAt, &d.Schedule.UpdatedAt,
		&d.Teacher.ID, &d.Teacher.FirstName, &d.Teacher.LastName, &d.Teacher.CreatedAt, &d.Teacher.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectBookingDetails(rows pgx.Rows) ([]model.BookingDetail, error) {
	defer rows.Close()
	var out []model.BookingDetail
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *bookingRepo) CreateBooking(ctx context.Context, userID, scheduleID string) (*model.Booking, error) {
	const q = `
		INSERT INTO bookings (user_id, class_schedule_id)
		VALUES ($1, $2)
		RETURNING id, user_id, class_schedule_id, created_at`
	var b model.Booking
	err := conn(ctx, r.pool).QueryRow(ctx, q, userID, scheduleID).Scan(&b.ID, &b.UserID, &b.ClassScheduleID, &b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "bookings_user_schedule_unique") {
			return nil, ErrBookingExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("creating booking of schedule %s for user %s: %w", scheduleID, userID, err)
	}
	return &b, nil
}

func (r *bookingRepo) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT id, user_id, class_schedule_id, created_at FROM bookings WHERE id = $1`
	var b model.Booking
	if err := conn(ctx, r.pool).QueryRow(ctx, q, id).Scan(&b.ID, &b.UserID, &b.ClassScheduleID, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *bookingRepo) GetBookingDetail(ctx context.Context, id string) (*model.BookingDetail, error) {
	d, err := scanBookingDetail(conn(ctx, r.pool).QueryRow(ctx, bookingDetailSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching booking detail %s: %w", id, err)
	}
	return d, nil
}

func (r *bookingRepo) BookingExists(ctx context.Context, userID, scheduleID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND class_schedule_id = $2)`
	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, q, userID, scheduleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking booking of schedule %s for user %s: %w", scheduleID, userID, err)
	}
	return exists, nil
}

func (r *bookingRepo) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	var n int
	q := `SELECT COUNT(*) FROM bookings WHERE class_schedule_id = $1`
	if err := conn(ctx, r.pool).QueryRow(ctx, q, scheduleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting bookings of schedule %s: %w", scheduleID, err)
	}
	return n, nil
}

func (r *bookingRepo) ListBySchedules(ctx context.Context, scheduleIDs []string) ([]model.BookingDetail, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	q := bookingDetailSelect + ` WHERE b.class_schedule_id = ANY($1::uuid[]) ORDER BY b.created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, q, scheduleIDs)
	if err != nil {
		return nil, fmt.Errorf("listing bookings of schedules: %w", err)
	}
	bookings, err := collectBookingDetails(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning bookings of schedules: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepo) ListBookings(ctx context.Context, page, perPage int) ([]model.BookingDetail, int, error) {
	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting bookings: %w", err)
	}
	rows, err := db.Query(ctx, bookingDetailSelect+` ORDER BY cs.start_time DESC LIMIT $1 OFFSET $2`, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("listing bookings: %w", err)
	}
	bookings, err := collectBookingDetails(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *bookingRepo) ListBookingsByUser(ctx context.Context, userID string, page, perPage int) ([]model.BookingDetail, int, error) {
	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting bookings for user %s: %w", userID, err)
	}
	q := bookingDetailSelect + ` WHERE b.user_id = $1 ORDER BY cs.start_time DESC LIMIT $2 OFFSET $3`
	rows, err := db.Query(ctx, q, userID, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("listing bookings for user %s: %w", userID, err)
	}
	bookings, err := collectBookingDetails(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning bookings for user %s: %w", userID, err)
	}
	return bookings, total, nil
}

func (r *bookingRepo) DeleteBooking(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting booking %s: %w", id, err)
	}
	return nil
}

func (r *bookingRepo) DeleteBySchedule(ctx context.Context, scheduleID string) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM bookings WHERE class_schedule_id = $1`, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("deleting bookings of schedule %s: %w", scheduleID, err)
	}
	return tag.RowsAffected(), nil
}
