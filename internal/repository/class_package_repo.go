package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/erfajc97/anko-back/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassPackageRepository manages the package catalog.
type ClassPackageRepository interface {
	CreatePackage(ctx context.Context, p *model.ClassPackage) (*model.ClassPackage, error)
	GetPackageByID(ctx context.Context, id string) (*model.ClassPackage, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]model.ClassPackage, error)
	UpdatePackage(ctx context.Context, p *model.ClassPackage) (*model.ClassPackage, error)
	DeletePackage(ctx context.Context, id string) error
	// CountPurchases counts user packages and payment transactions referencing the package.
	CountPurchases(ctx context.Context, id string) (int, error)
}

type classPackageRepo struct {
	pool *pgxpool.Pool
}

func NewClassPackageRepo(pool *pgxpool.Pool) ClassPackageRepository {
	return &classPackageRepo{pool: pool}
}

const packageColumns = `id, name, description, price_cents, class_credits, validity_days, is_active, created_at, updated_at`

func scanPackage(row pgx.Row) (*model.ClassPackage, error) {
	var p model.ClassPackage
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.ClassCredits,
		&p.ValidityDays,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *classPackageRepo) CreatePackage(ctx context.Context, p *model.ClassPackage) (*model.ClassPackage, error) {
	q := `INSERT INTO class_packages (name, description, price_cents, class_credits, validity_days, is_active)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      RETURNING ` + packageColumns
	created, err := scanPackage(conn(ctx, r.pool).QueryRow(ctx, q,
		p.Name, p.Description, p.PriceCents, p.ClassCredits, p.ValidityDays, p.IsActive))
	if err != nil {
		return nil, fmt.Errorf("creating class package %q: %w", p.Name, err)
	}
	return created, nil
}

func (r *classPackageRepo) GetPackageByID(ctx context.Context, id string) (*model.ClassPackage, error) {
	q := `SELECT ` + packageColumns + ` FROM class_packages WHERE id = $1`
	p, err := scanPackage(conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching class package %s: %w", id, err)
	}
	return p, nil
}

func (r *classPackageRepo) ListPackages(ctx context.Context, activeOnly bool) ([]model.ClassPackage, error) {
	q := `SELECT ` + packageColumns + ` FROM class_packages WHERE ($1 = false OR is_active) ORDER BY price_cents ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, q, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing class packages: %w", err)
	}
	defer rows.Close()

	var packages []model.ClassPackage
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning class package: %w", err)
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}

func (r *classPackageRepo) UpdatePackage(ctx context.Context, p *model.ClassPackage) (*model.ClassPackage, error) {
	q := `UPDATE class_packages
	      SET name = $2, description = $3, price_cents = $4, class_credits = $5, validity_days = $6,
	          is_active = $7, updated_at = now()
	      WHERE id = $1
	      RETURNING ` + packageColumns
	updated, err := scanPackage(conn(ctx, r.pool).QueryRow(ctx, q,
		p.ID, p.Name, p.Description, p.PriceCents, p.ClassCredits, p.ValidityDays, p.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating class package %s: %w", p.ID, err)
	}
	return updated, nil
}

func (r *classPackageRepo) DeletePackage(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM class_packages WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("deleting class package %s: %w", id, err)
	}
	return nil
}

func (r *classPackageRepo) CountPurchases(ctx context.Context, id string) (int, error) {
	const q = `
		SELECT (SELECT COUNT(*) FROM user_packages WHERE class_package_id = $1)
		     + (SELECT COUNT(*) FROM payment_transactions WHERE package_id = $1)`
	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, q, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting purchases of class package %s: %w", id, err)
	}
	return n, nil
}
