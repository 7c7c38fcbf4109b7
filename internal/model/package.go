package model

import "time"

// ClassPackage is a catalog entry that can be purchased for class credits
type ClassPackage struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	PriceCents   int64     `db:"price_cents" json:"price_cents"`
	ClassCredits int       `db:"class_credits" json:"class_credits"`
	ValidityDays int       `db:"validity_days" json:"validity_days"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PackageSource records how a user package was obtained.
type PackageSource string

const (
	SourcePurchase PackageSource = "purchase"
	SourceAdmin    PackageSource = "admin"
)

// UserPackage is one entry of a user's credit ledger.
//
// TotalCredits is a snapshot of the catalog package's ClassCredits taken at purchase
// time, so later catalog edits never change what was already sold.
type UserPackage struct {
	ID               string        `db:"id" json:"id"`
	UserID           string        `db:"user_id" json:"user_id"`
	ClassPackageID   string        `db:"class_package_id" json:"class_package_id"`
	TotalCredits     int           `db:"total_credits" json:"total_credits"`
	RemainingCredits int           `db:"remaining_credits" json:"remaining_credits"`
	Source           PackageSource `db:"source" json:"source"`
	PurchasedAt      time.Time     `db:"purchased_at" json:"purchased_at"`
	ExpiresAt        time.Time     `db:"expires_at" json:"expires_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`

	// Populated by joins, nil otherwise.
	ClassPackage *ClassPackage `db:"-" json:"class_package,omitempty"`
	User         *User         `db:"-" json:"user,omitempty"`
}

// Usable reports whether a credit can be consumed from the package at now.
func (p *UserPackage) Usable(now time.Time) bool {
	return p.RemainingCredits > 0 && p.ExpiresAt.After(now)
}

// Refundable reports whether a credit can be returned to the package at now.
func (p *UserPackage) Refundable(now time.Time) bool {
	return p.RemainingCredits < p.TotalCredits && p.ExpiresAt.After(now)
}

// ExpiryFor computes the expiry of a package bought at purchasedAt.
func ExpiryFor(purchasedAt time.Time, validityDays int) time.Time {
	return purchasedAt.AddDate(0, 0, validityDays)
}

// AvailableCredits summarises what a user can still book.
type AvailableCredits struct {
	TotalAvailable int           `json:"total_available"`
	Packages       []UserPackage `json:"packages"`
}
