package model

import "time"

// PaymentStatus is the state of an external payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// CanTransition reports whether a transaction may move from s to next.
// Completed is terminal; a failed attempt may still be confirmed late by the gateway.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentFailed:
		return next == PaymentCompleted
	}
	return false
}

// PaymentTransaction records one payment attempt for a class package.
type PaymentTransaction struct {
	ID                  string        `db:"id" json:"id"`
	UserID              string        `db:"user_id" json:"user_id"`
	PackageID           string        `db:"package_id" json:"package_id"`
	ClientTransactionID string        `db:"client_transaction_id" json:"client_transaction_id"`
	AmountCents         int64         `db:"amount_cents" json:"amount_cents"`
	Status              PaymentStatus `db:"status" json:"status"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`

	Package *ClassPackage `db:"-" json:"package,omitempty"`
}
