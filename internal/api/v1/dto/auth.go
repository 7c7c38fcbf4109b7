package dto

import "time"

type RegisterDTO struct {
	Email     string `json:"email" validate:"required,email" format:"email"`
	Password  string `json:"password" validate:"required,min=8,max=72" minLength:"8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name,omitempty" validate:"max=100"`
	Telephone string `json:"telephone,omitempty" validate:"max=32"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenDTO struct {
	Token string `json:"token" validate:"required"`
}

type EmailDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72" minLength:"8"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72" minLength:"8"`
}

type AuthResponseDTO struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	User         *UserResponseDTO `json:"user,omitempty"`
}

type MessageDTO struct {
	Message string `json:"message"`
}
