package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*model.User, error)
	// UpdateUser writes every mutable column of u.
	UpdateUser(ctx context.Context, u *model.User) (*model.User, error)
	ListUsers(ctx context.Context, page, perPage int) ([]model.User, int, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, first_name, last_name, telephone, password_hash, role, is_verified,
	verification_token, verification_expires_at, reset_token, reset_expires_at, refresh_token_hash,
	created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Telephone,
		&u.PasswordHash,
		&u.Role,
		&u.IsVerified,
		&u.VerificationToken,
		&u.VerificationExpiresAt,
		&u.ResetToken,
		&u.ResetExpiresAt,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	q := `INSERT INTO users (email, first_name, last_name, telephone, password_hash, role, is_verified,
	          verification_token, verification_expires_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	      RETURNING ` + userColumns
	created, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, q,
		u.Email, u.FirstName, u.LastName, u.Telephone, u.PasswordHash, u.Role, u.IsVerified,
		u.VerificationToken, u.VerificationExpiresAt,
	))
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user %s: %w", u.Email, err)
	}
	return created, nil
}

func (r *userRepo) getOne(ctx context.Context, where, arg, label string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user by %s: %w", label, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "id = $1", id, "id "+id)
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email, "email")
}

func (r *userRepo) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, "verification_token = $1", token, "verification token")
}

func (r *userRepo) GetUserByResetToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, "reset_token = $1", token, "reset token")
}

func (r *userRepo) UpdateUser(ctx context.Context, u *model.User) (*model.User, error) {
	q := `UPDATE users
	      SET email = $2, first_name = $3, last_name = $4, telephone = $5, password_hash = $6, role = $7,
	          is_verified = $8, verification_token = $9, verification_expires_at = $10,
	          reset_token = $11, reset_expires_at = $12, refresh_token_hash = $13, updated_at = now()
	      WHERE id = $1
	      RETURNING ` + userColumns
	updated, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, q,
		u.ID, u.Email, u.FirstName, u.LastName, u.Telephone, u.PasswordHash, u.Role,
		u.IsVerified, u.VerificationToken, u.VerificationExpiresAt,
		u.ResetToken, u.ResetExpiresAt, u.RefreshTokenHash,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("updating user %s: %w", u.ID, err)
	}
	return updated, nil
}

func (r *userRepo) ListUsers(ctx context.Context, page, perPage int) ([]model.User, int, error) {
	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := db.Query(ctx, q, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating users: %w", err)
	}
	return users, total, nil
}
