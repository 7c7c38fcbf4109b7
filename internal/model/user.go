package model

import "time"

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a studio customer or administrator account
type User struct {
	ID                    string     `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	Telephone             string     `db:"telephone" json:"telephone"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	Role                  Role       `db:"role" json:"role"`
	IsVerified            bool       `db:"is_verified" json:"is_verified"`
	VerificationToken     *string    `db:"verification_token" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`
	ResetToken            *string    `db:"reset_token" json:"-"`
	ResetExpiresAt        *time.Time `db:"reset_expires_at" json:"-"`
	RefreshTokenHash      *string    `db:"refresh_token_hash" json:"-"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, skipping an empty last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Principal is the authenticated actor of a request.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UserStatistics aggregates account counters for the admin dashboard
type UserStatistics struct {
	TotalUsers        int     `json:"total_users"`
	VerifiedUsers     int     `json:"verified_users"`
	UsersWithPackages int     `json:"users_with_packages"`
	ActiveBookings    int     `json:"active_bookings"`
	VerificationRate  float64 `json:"verification_rate"`
	ConversionRate    float64 `json:"conversion_rate"`
}
