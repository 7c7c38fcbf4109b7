package dto

import "time"

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Telephone  string    `json:"telephone"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type UserUpdateDTO struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Telephone *string `json:"telephone,omitempty" validate:"omitempty,max=32"`
}

type UserPageDTO struct {
	Content     []UserResponseDTO `json:"content"`
	CurrentPage int               `json:"current_page"`
	TotalPages  int               `json:"total_pages"`
	TotalItems  int               `json:"total_items"`
}
