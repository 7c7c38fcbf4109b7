package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DBTX is the subset of pgx shared by the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// Transactor runs a unit of work inside one database transaction.
type Transactor interface {
	// WithinTx runs fn in a serializable transaction carried by the context passed to fn.
	// A nested call joins the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgInvalidTextRepr      = "22P02"
)

type pgxTransactor struct {
	pool        *pgxpool.Pool
	maxAttempts int
	logger      zerolog.Logger
}

// NewTransactor creates a Transactor that retries serialization failures up to maxAttempts times.
func NewTransactor(pool *pgxpool.Pool, maxAttempts int, logger zerolog.Logger) Transactor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &pgxTransactor{
		pool:        pool,
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("component", "Transactor").Logger(),
	}
}

func (t *pgxTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.run(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		t.logger.Warn().Err(err).Int("attempt", attempt).Msg("Serialization failure, retrying transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*10) * time.Millisecond):
		}
	}
	return err
}

func (t *pgxTransactor) run(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// conn returns the transaction carried by ctx, or the pool.
func conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isRetryable(err error) bool {
	code, _ := pgCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

func isUniqueViolation(err error, constraint string) bool {
	code, name := pgCode(err)
	return code == pgUniqueViolation && (constraint == "" || name == constraint)
}

func isExclusionViolation(err error) bool {
	code, _ := pgCode(err)
	return code == pgExclusionViolation
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == pgForeignKeyViolation
}

// IsMalformedID reports whether Postgres rejected a value that cannot name a row,
// such as a non-UUID where a uuid column is compared.
func IsMalformedID(err error) bool {
	code, _ := pgCode(err)
	return code == pgInvalidTextRepr
}

// offset converts a 1-based page into a row offset.
func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
