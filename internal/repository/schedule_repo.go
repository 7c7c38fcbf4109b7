package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleRepository persists class schedules.
type ScheduleRepository interface {
	// CreateSchedules inserts every schedule in one batch; an overlap with an existing
	// schedule of the same teacher yields ErrScheduleOverlap.
	CreateSchedules(ctx context.Context, schedules []model.ClassSchedule) ([]model.ClassSchedule, error)
	GetScheduleByID(ctx context.Context, id string) (*model.ClassSchedule, error)
	// LockSchedule takes a row lock on the schedule for the rest of the transaction.
	LockSchedule(ctx context.Context, id string) (*model.ClassSchedule, error)
	// ListOverlapping returns the teacher's schedules intersecting [from, to).
	ListOverlapping(ctx context.Context, teacherID string, from, to time.Time, excludeID string) ([]model.ClassSchedule, error)
	ListSchedules(ctx context.Context, page, perPage int) ([]model.ClassSchedule, int, error)
	// ListInRange returns schedules starting in [from, to), ordered by start time.
	ListInRange(ctx context.Context, from, to time.Time) ([]model.ClassSchedule, error)
	UpdateSchedule(ctx context.Context, s *model.ClassSchedule) (*model.ClassSchedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

type scheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepo{pool: pool}
}

const scheduleColumns = `cs.id, cs.teacher_id, cs.title, cs.start_time, cs.end_time, cs.max_capacity, cs.created_at, cs.updated_at`

func scanSchedule(row pgx.Row) (*model.ClassSchedule, error) {
	var s model.ClassSchedule
	err := row.Scan(
		&s.ID,
		&s.TeacherID,
		&s.Title,
		&s.StartTime,
		&s.EndTime,
		&s.MaxCapacity,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanScheduleWithTeacher(row pgx.Row) (*model.ClassSchedule, error) {
	var s model.ClassSchedule
	var t model.Teacher
	err := row.Scan(
		&s.ID,
		&s.TeacherID,
		&s.Title,
		&s.StartTime,
		&s.EndTime,
		&s.MaxCapacity,
		&s.CreatedAt,
		&s.UpdatedAt,
		&t.ID,
		&t.FirstName,
		&t.LastName,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Teacher = &t
	return &s, nil
}

const scheduleTeacherColumns = scheduleColumns + `, t.id, t.first_name, t.last_name, t.created_at, t.updated_at`

func (r *scheduleRepo) CreateSchedules(ctx context.Context, schedules []model.ClassSchedule) ([]model.ClassSchedule, error) {
	if len(schedules) == 0 {
		return []model.ClassSchedule{}, nil
	}
	q := `INSERT INTO class_schedules AS cs (teacher_id, title, start_time, end_time, max_capacity)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING ` + scheduleColumns

	batch := &pgx.Batch{}
	for _, s := range schedules {
		batch.Queue(q, s.TeacherID, s.Title, s.StartTime, s.EndTime, s.MaxCapacity)
	}
	br := conn(ctx, r.pool).SendBatch(ctx, batch)
	defer br.Close()

	created := make([]model.ClassSchedule, 0, len(schedules))
	for range schedules {
		s, err := scanSchedule(br.QueryRow())
		if err != nil {
			if isExclusionViolation(err) {
				return nil, ErrScheduleOverlap
			}
			if isForeignKeyViolation(err) {
				return nil, ErrInvalidReference
			}
			return nil, fmt.Errorf("creating class schedule: %w", err)
		}
		created = append(created, *s)
	}
	return created, nil
}

func (r *scheduleRepo) GetScheduleByID(ctx context.Context, id string) (*model.ClassSchedule, error) {
	q := `SELECT ` + scheduleTeacherColumns + `
	      FROM class_schedules cs
	      JOIN teachers t ON t.id = cs.teacher_id
	      WHERE cs.id = $1`
	s, err := scanScheduleWithTeacher(conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching class schedule %s: %w", id, err)
	}
	return s, nil
}

func (r *scheduleRepo) LockSchedule(ctx context.Context, id string) (*model.ClassSchedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM class_schedules cs WHERE cs.id = $1 FOR UPDATE`
	s, err := scanSchedule(conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("locking class schedule %s: %w", id, err)
	}
	return s, nil
}

func (r *scheduleRepo) collect(rows pgx.Rows, withTeacher bool) ([]model.ClassSchedule, error) {
	defer rows.Close()
	var schedules []model.ClassSchedule
	for rows.Next() {
		var s *model.ClassSchedule
		var err error
		if withTeacher {
			s, err = scanScheduleWithTeacher(rows)
		} else {
			s, err = scanSchedule(rows)
		}
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

func (r *scheduleRepo) ListOverlapping(ctx context.Context, teacherID string, from, to time.Time, excludeID string) ([]model.ClassSchedule, error) {
	q := `SELECT ` + scheduleColumns + `
	      FROM class_schedules cs
	      WHERE cs.teacher_id = $1 AND cs.start_time < $3 AND $2 < cs.end_time
	        AND ($4 = '' OR cs.id::text <> $4)
	      ORDER BY cs.start_time`
	rows, err := conn(ctx, r.pool).Query(ctx, q, teacherID, from, to, excludeID)
	if err != nil {
		return nil, fmt.Errorf("listing overlapping schedules for teacher %s: %w", teacherID, err)
	}
	schedules, err := r.collect(rows, false)
	if err != nil {
		return nil, fmt.Errorf("scanning overlapping schedules for teacher %s: %w", teacherID, err)
	}
	return schedules, nil
}

func (r *scheduleRepo) ListSchedules(ctx context.Context, page, perPage int) ([]model.ClassSchedule, int, error) {
	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM class_schedules`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting class schedules: %w", err)
	}
	q := `SELECT ` + scheduleTeacherColumns + `
	      FROM class_schedules cs
	      JOIN teachers t ON t.id = cs.teacher_id
	      ORDER BY cs.start_time ASC
	      LIMIT $1 OFFSET $2`
	rows, err := db.Query(ctx, q, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("listing class schedules: %w", err)
	}
	schedules, err := r.collect(rows, true)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning class schedules: %w", err)
	}
	return schedules, total, nil
}

func (r *scheduleRepo) ListInRange(ctx context.Context, from, to time.Time) ([]model.ClassSchedule, error) {
	q := `SELECT ` + scheduleTeacherColumns + `
	      FROM class_schedules cs
	      JOIN teachers t ON t.id = cs.teacher_id
	      WHERE cs.start_time >= $1 AND cs.start_time < $2
	      ORDER BY cs.start_time ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing class schedules in range: %w", err)
	}
	schedules, err := r.collect(rows, true)
	if err != nil {
		return nil, fmt.Errorf("scanning class schedules in range: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepo) UpdateSchedule(ctx context.Context, s *model.ClassSchedule) (*model.ClassSchedule, error) {
	q := `UPDATE class_schedules AS cs
	      SET teacher_id = $2, title = $3, max_capacity = $4, updated_at = now()
	      WHERE cs.id = $1
	      RETURNING ` + scheduleColumns
	updated, err := scanSchedule(conn(ctx, r.pool).QueryRow(ctx, q, s.ID, s.TeacherID, s.Title, s.MaxCapacity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isExclusionViolation(err) {
			return nil, ErrScheduleOverlap
		}
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("updating class schedule %s: %w", s.ID, err)
	}
	return updated, nil
}

func (r *scheduleRepo) DeleteSchedule(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM class_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting class schedule %s: %w", id, err)
	}
	return nil
}
