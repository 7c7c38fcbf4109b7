package operation

import "github.com/erfajc97/anko-back/internal/api/v1/dto"

type RegisterInput struct {
	Body dto.RegisterDTO `json:"body"`
}

type RegisterOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type LoginInput struct {
	Body dto.LoginDTO `json:"body"`
}

type AuthOutput struct {
	Body dto.AuthResponseDTO `json:"body"`
}

type RefreshInput struct {
	Body dto.RefreshDTO `json:"body"`
}

type LogoutInput struct {
	// No input needed - user ID comes from auth context
}

type VerifyEmailInput struct {
	Body dto.TokenDTO `json:"body"`
}

type EmailInput struct {
	Body dto.EmailDTO `json:"body"`
}

type ResetPasswordInput struct {
	Body dto.ResetPasswordDTO `json:"body"`
}

type ChangePasswordInput struct {
	Body dto.ChangePasswordDTO `json:"body"`
}
