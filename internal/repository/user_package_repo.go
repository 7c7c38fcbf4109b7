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

// UserPackageRepository is the persistent side of the credit ledger.
type UserPackageRepository interface {
	CreateUserPackage(ctx context.Context, p *model.UserPackage) (*model.UserPackage, error)
	GetUserPackageByID(ctx context.Context, id string) (*model.UserPackage, error)
	// ConsumeOldest decrements the oldest usable package of the user in a single statement.
	// It returns nil when the user has no usable package.
	ConsumeOldest(ctx context.Context, userID string, now time.Time) (*model.UserPackage, error)
	// RefundNewest increments the newest unexpired package that is below its credit total.
	// It returns nil when no package can take the credit back.
	RefundNewest(ctx context.Context, userID string, now time.Time) (*model.UserPackage, error)
	ListUsable(ctx context.Context, userID string, now time.Time) ([]model.UserPackage, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserPackage, error)
	ListUserPackages(ctx context.Context, page, perPage int) ([]model.UserPackage, int, error)
	// RemainingByUsers sums usable credits per user.
	RemainingByUsers(ctx context.Context, userIDs []string, now time.Time) (map[string]int, error)
	UpdateUserPackage(ctx context.Context, p *model.UserPackage) (*model.UserPackage, error)
	DeleteUserPackage(ctx context.Context, id string) error
}

type userPackageRepo struct {
	pool *pgxpool.Pool
}

func NewUserPackageRepo(pool *pgxpool.Pool) UserPackageRepository {
	return &userPackageRepo{pool: pool}
}

const userPackageColumns = `up.id, up.user_id, up.class_package_id, up.total_credits, up.remaining_credits, up.source,
	up.purchased_at, up.expires_at, up.updated_at`

func scanUserPackage(row pgx.Row) (*model.UserPackage, error) {
	var p model.UserPackage
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ClassPackageID,
		&p.TotalCredits,
		&p.RemainingCredits,
		&p.Source,
		&p.PurchasedAt,
		&p.ExpiresAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanUserPackageWithCatalog scans userPackageColumns followed by packageColumns.
func scanUserPackageWithCatalog(row pgx.Row) (*model.UserPackage, error) {
	var p model.UserPackage
	var cp model.ClassPackage
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ClassPackageID,
		&p.TotalCredits,
		&p.RemainingCredits,
		&p.Source,
		&p.PurchasedAt,
		&p.ExpiresAt,
		&p.UpdatedAt,
		&cp.ID,
		&cp.Name,
		&cp.Description,
		&cp.PriceCents,
		&cp.ClassCredits,
		&cp.ValidityDays,
		&cp.IsActive,
		&cp.CreatedAt,
		&cp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ClassPackage = &cp
	return &p, nil
}

const catalogColumns = `cp.id, cp.name, cp.description, cp.price_cents, cp.class_credits, cp.validity_days,
	cp.is_active, cp.created_at, cp.updated_at`

func (r *userPackageRepo) CreateUserPackage(ctx context.Context, p *model.UserPackage) (*model.UserPackage, error) {
	q := `INSERT INTO user_packages AS up
	          (user_id, class_package_id, total_credits, remaining_credits, source, purchased_at, expires_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      RETURNING ` + userPackageColumns
	created, err := scanUserPackage(conn(ctx, r.pool).QueryRow(ctx, q,
		p.UserID, p.ClassPackageID, p.TotalCredits, p.RemainingCredits, p.Source, p.PurchasedAt, p.ExpiresAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("creating user package for user %s: %w", p.UserID, err)
	}
	return created, nil
}

func (r *userPackageRepo) GetUserPackageByID(ctx context.Context, id string) (*model.UserPackage, error) {
	q := `SELECT ` + userPackageColumns + `, ` + catalogColumns + `
	      FROM user_packages up
	      JOIN class_packages cp ON cp.id = up.class_package_id
	      WHERE up.id = $1`
	p, err := scanUserPackageWithCatalog(conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user package %s: %w", id, err)
	}
	return p, nil
}

func (r *userPackageRepo) ConsumeOldest(ctx context.Context, userID string, now time.Time) (*model.UserPackage, error) {
	q := `UPDATE user_packages AS up
	      SET remaining_credits = up.remaining_credits - 1, updated_at = now()
	      WHERE up.id = (
	          SELECT id FROM user_packages
	          WHERE user_id = $1 AND remaining_credits > 0 AND expires_at > $2
	          ORDER BY purchased_at ASC, id ASC
	          LIMIT 1
	          FOR UPDATE
	      )
	        AND up.remaining_credits > 0
	      RETURNING ` + userPackageColumns
	p, err := scanUserPackage(conn(ctx, r.pool).QueryRow(ctx, q, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("consuming credit for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *userPackageRepo) RefundNewest(ctx context.Context, userID string, now time.Time) (*model.UserPackage, error) {
	q := `UPDATE user_packages AS up
	      SET remaining_credits = up.remaining_credits + 1, updated_at = now()
	      WHERE up.id = (
	          SELECT id FROM user_packages
	          WHERE user_id = $1 AND remaining_credits < total_credits AND expires_at > $2
	          ORDER BY purchased_at DESC, id DESC
	          LIMIT 1
	          FOR UPDATE
	      )
	        AND up.remaining_credits < up.total_credits
	      RETURNING ` + userPackageColumns
	p, err := scanUserPackage(conn(ctx, r.pool).QueryRow(ctx, q, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("refunding credit for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *userPackageRepo) list(ctx context.Context, q string, args ...any) ([]model.UserPackage, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []model.UserPackage
	for rows.Next() {
		p, err := scanUserPackageWithCatalog(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}

func (r *userPackageRepo) ListUsable(ctx context.Context, userID string, now time.Time) ([]model.UserPackage, error) {
	q := `SELECT ` + userPackageColumns + `, ` + catalogColumns + `
	      FROM user_packages up
	      JOIN class_packages cp ON cp.id = up.class_package_id
	      WHERE up.user_id = $1 AND up.remaining_credits > 0 AND up.expires_at > $2
	      ORDER BY up.purchased_at ASC`
	packages, err := r.list(ctx, q, userID, now)
	if err != nil {
		return nil, fmt.Errorf("listing usable packages for user %s: %w", userID, err)
	}
	return packages, nil
}

func (r *userPackageRepo) ListByUser(ctx context.Context, userID string) ([]model.UserPackage, error) {
	q := `SELECT ` + userPackageColumns + `, ` + catalogColumns + `
	      FROM user_packages up
	      JOIN class_packages cp ON cp.id = up.class_package_id
	      WHERE up.user_id = $1
	      ORDER BY up.purchased_at DESC`
	packages, err := r.list(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing packages for user %s: %w", userID, err)
	}
	return packages, nil
}

func (r *userPackageRepo) ListUserPackages(ctx context.Context, page, perPage int) ([]model.UserPackage, int, error) {
	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM user_packages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting user packages: %w", err)
	}
	q := `SELECT ` + userPackageColumns + `, ` + catalogColumns + `, u.email, u.first_name, u.last_name
	      FROM user_packages up
	      JOIN class_packages cp ON cp.id = up.class_package_id
	      JOIN users u ON u.id = up.user_id
	      ORDER BY up.purchased_at DESC
	      LIMIT $1 OFFSET $2`
	rows, err := db.Query(ctx, q, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("listing user packages: %w", err)
	}
	defer rows.Close()

	var packages []model.UserPackage
	for rows.Next() {
		var p model.UserPackage
		var cp model.ClassPackage
		var u model.User
		err := rows.Scan(
			&p.ID, &p.UserID, &p.ClassPackageID, &p.TotalCredits, &p.RemainingCredits, &p.Source,
			&p.PurchasedAt, &p.ExpiresAt, &p.UpdatedAt,
			&cp.ID, &cp.Name, &cp.Description, &cp.PriceCents, &cp.ClassCredits, &cp.ValidityDays,
			&cp.IsActive, &cp.CreatedAt, &cp.UpdatedAt,
			&u.Email, &u.FirstName, &u.LastName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning user package: %w", err)
		}
		u.ID = p.UserID
		p.ClassPackage = &cp
		p.User = &u
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating user packages: %w", err)
	}
	return packages, total, nil
}

func (r *userPackageRepo) RemainingByUsers(ctx context.Context, userIDs []string, now time.Time) (map[string]int, error) {
	out := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	const q = `
		SELECT user_id, COALESCE(SUM(remaining_credits), 0)
		FROM user_packages
		WHERE user_id = ANY($1::uuid[]) AND remaining_credits > 0 AND expires_at > $2
		GROUP BY user_id`
	rows, err := conn(ctx, r.pool).Query(ctx, q, userIDs, now)
	if err != nil {
		return nil, fmt.Errorf("summing remaining credits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning remaining credits: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *userPackageRepo) UpdateUserPackage(ctx context.Context, p *model.UserPackage) (*model.UserPackage, error) {
	q := `UPDATE user_packages AS up
	      SET remaining_credits = $2, expires_at = $3, updated_at = now()
	      WHERE up.id = $1
	      RETURNING ` + userPackageColumns
	updated, err := scanUserPackage(conn(ctx, r.pool).QueryRow(ctx, q, p.ID, p.RemainingCredits, p.ExpiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if code, _ := pgCode(err); code == pgCheckViolation {
			return nil, ErrCreditsOutOfRange
		}
		return nil, fmt.Errorf("updating user package %s: %w", p.ID, err)
	}
	return updated, nil
}

func (r *userPackageRepo) DeleteUserPackage(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM user_packages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting user package %s: %w", id, err)
	}
	return nil
}
