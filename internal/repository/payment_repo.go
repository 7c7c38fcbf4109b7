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

// PaymentRepository persists payment transactions.
type PaymentRepository interface {
	CreateTransaction(ctx context.Context, t *model.PaymentTransaction) (*model.PaymentTransaction, error)
	GetByClientTransactionID(ctx context.Context, clientTxID string) (*model.PaymentTransaction, error)
	// LockByClientTransactionID takes a row lock on the transaction for the rest of the unit of work.
	LockByClientTransactionID(ctx context.Context, clientTxID string) (*model.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.PaymentTransaction, error)
	ListPendingByUser(ctx context.Context, userID string) ([]model.PaymentTransaction, error)
	// FailPendingBefore marks pending transactions created before cutoff as failed.
	FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `pt.id, pt.user_id, pt.package_id, pt.client_transaction_id, pt.amount_cents, pt.status,
	pt.created_at, pt.updated_at`

func scanPayment(row pgx.Row) (*model.PaymentTransaction, error) {
	var t model.PaymentTransaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.PackageID,
		&t.ClientTransactionID,
		&t.AmountCents,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *paymentRepo) CreateTransaction(ctx context.Context, t *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	q := `INSERT INTO payment_transactions AS pt (user_id, package_id, client_transaction_id, amount_cents, status)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING ` + paymentColumns
	created, err := scanPayment(conn(ctx, r.pool).QueryRow(ctx, q,
		t.UserID, t.PackageID, t.ClientTransactionID, t.AmountCents, t.Status))
	if err != nil {
		if isUniqueViolation(err, "payment_transactions_client_transaction_id_key") {
			return nil, ErrTransactionExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("creating payment transaction %s: %w", t.ClientTransactionID, err)
	}
	return created, nil
}

func (r *paymentRepo) getOne(ctx context.Context, clientTxID string, lock bool) (*model.PaymentTransaction, error) {
	q := `SELECT ` + paymentColumns + ` FROM payment_transactions pt WHERE pt.client_transaction_id = $1`
	if lock {
		q += ` FOR UPDATE`
	}
	t, err := scanPayment(conn(ctx, r.pool).QueryRow(ctx, q, clientTxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching payment transaction %s: %w", clientTxID, err)
	}
	return t, nil
}

func (r *paymentRepo) GetByClientTransactionID(ctx context.Context, clientTxID string) (*model.PaymentTransaction, error) {
	return r.getOne(ctx, clientTxID, false)
}

func (r *paymentRepo) LockByClientTransactionID(ctx context.Context, clientTxID string) (*model.PaymentTransaction, error) {
	return r.getOne(ctx, clientTxID, true)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.PaymentTransaction, error) {
	q := `UPDATE payment_transactions AS pt SET status = $2, updated_at = now()
	      WHERE pt.id = $1
	      RETURNING ` + paymentColumns
	t, err := scanPayment(conn(ctx, r.pool).QueryRow(ctx, q, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating status of payment transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *paymentRepo) ListPendingByUser(ctx context.Context, userID string) ([]model.PaymentTransaction, error) {
	q := `SELECT ` + paymentColumns + `, ` + catalogColumns + `
	      FROM payment_transactions pt
	      JOIN class_packages cp ON cp.id = pt.package_id
	      WHERE pt.user_id = $1 AND pt.status = 'pending'
	      ORDER BY pt.created_at DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing pending payments for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.PaymentTransaction
	for rows.Next() {
		var t model.PaymentTransaction
		var cp model.ClassPackage
		err := rows.Scan(
			&t.ID, &t.UserID, &t.PackageID, &t.ClientTransactionID, &t.AmountCents, &t.Status,
			&t.CreatedAt, &t.UpdatedAt,
			&cp.ID, &cp.Name, &cp.Description, &cp.PriceCents, &cp.ClassCredits, &cp.ValidityDays,
			&cp.IsActive, &cp.CreatedAt, &cp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning pending payment: %w", err)
		}
		t.Package = &cp
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *paymentRepo) FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `UPDATE payment_transactions SET status = 'failed', updated_at = now()
	           WHERE status = 'pending' AND created_at < $1`
	tag, err := conn(ctx, r.pool).Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failing stale pending payments: %w", err)
	}
	return tag.RowsAffected(), nil
}
