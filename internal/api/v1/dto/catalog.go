package dto

import "time"

type TeacherDTO struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name,omitempty" validate:"max=100"`
}

type PackageCreateDTO struct {
	Name         string `json:"name" validate:"required,max=120"`
	Description  string `json:"description,omitempty"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0" minimum:"0"`
	ClassCredits int    `json:"class_credits" validate:"gt=0" minimum:"1"`
	ValidityDays int    `json:"validity_days" validate:"gt=0" minimum:"1"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

type PackageUpdateDTO struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Description  *string `json:"description,omitempty"`
	PriceCents   *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	ClassCredits *int    `json:"class_credits,omitempty" validate:"omitempty,gt=0"`
	ValidityDays *int    `json:"validity_days,omitempty" validate:"omitempty,gt=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// AssignPackageDTO grants a package to a user picked by id or email.
type AssignPackageDTO struct {
	PackageID string `json:"package_id" validate:"required,uuid"`
	UserID    string `json:"user_id,omitempty" validate:"required_without=Email,omitempty,uuid"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

type UserPackageUpdateDTO struct {
	RemainingCredits *int       `json:"remaining_credits,omitempty" validate:"omitempty,gte=0"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}
