package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TeacherRepository interface {
	CreateTeacher(ctx context.Context, t *model.Teacher) (*model.Teacher, error)
	GetTeacherByID(ctx context.Context, id string) (*model.Teacher, error)
	// LockTeacher takes a row lock on the teacher for the rest of the transaction.
	LockTeacher(ctx context.Context, id string) (*model.Teacher, error)
	ListTeachers(ctx context.Context) ([]model.Teacher, error)
	UpdateTeacher(ctx context.Context, t *model.Teacher) (*model.Teacher, error)
	DeleteTeacher(ctx context.Context, id string) error
	CountSchedules(ctx context.Context, teacherID string) (int, error)
}

type teacherRepo struct {
	pool *pgxpool.Pool
}

func NewTeacherRepo(pool *pgxpool.Pool) TeacherRepository {
	return &teacherRepo{pool: pool}
}

const teacherColumns = `id, first_name, last_name, created_at, updated_at`

func scanTeacher(row pgx.Row) (*model.Teacher, error) {
	var t model.Teacher
	if err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) CreateTeacher(ctx context.Context, t *model.Teacher) (*model.Teacher, error) {
	q := `INSERT INTO teachers (first_name, last_name) VALUES ($1, $2) RETURNING ` + teacherColumns
	created, err := scanTeacher(conn(ctx, r.pool).QueryRow(ctx, q, t.FirstName, t.LastName))
	if err != nil {
		return nil, fmt.Errorf("creating teacher: %w", err)
	}
	return created, nil
}

func (r *teacherRepo) GetTeacherByID(ctx context.Context, id string) (*model.Teacher, error) {
	q := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`
	t, err := scanTeacher(conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching teacher %s: %w", id, err)
	}
	return t, nil
}

func (r *teacherRepo) LockTeacher(ctx context.Context, id string) (*model.Teacher, error) {
	q := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1 FOR UPDATE`
	t, err := scanTeacher(conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("locking teacher %s: %w", id, err)
	}
	return t, nil
}

func (r *teacherRepo) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	q := `SELECT ` + teacherColumns + ` FROM teachers ORDER BY first_name, last_name`
	rows, err := conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing teachers: %w", err)
	}
	defer rows.Close()

	var teachers []model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning teacher: %w", err)
		}
		teachers = append(teachers, *t)
	}
	return teachers, rows.Err()
}

func (r *teacherRepo) UpdateTeacher(ctx context.Context, t *model.Teacher) (*model.Teacher, error) {
	q := `UPDATE teachers SET first_name = $2, last_name = $3, updated_at = now()
	      WHERE id = $1 RETURNING ` + teacherColumns
	updated, err := scanTeacher(conn(ctx, r.pool).QueryRow(ctx, q, t.ID, t.FirstName, t.LastName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating teacher %s: %w", t.ID, err)
	}
	return updated, nil
}

func (r *teacherRepo) DeleteTeacher(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("deleting teacher %s: %w", id, err)
	}
	return nil
}

func (r *teacherRepo) CountSchedules(ctx context.Context, teacherID string) (int, error) {
	var n int
	q := `SELECT COUNT(*) FROM class_schedules WHERE teacher_id = $1`
	if err := conn(ctx, r.pool).QueryRow(ctx, q, teacherID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting schedules for teacher %s: %w", teacherID, err)
	}
	return n, nil
}
