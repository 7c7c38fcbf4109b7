package handler

import (
	"context"

	"github.com/erfajc97/anko-back/internal/api/v1/dto"
	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthHandler implements registration, login and account recovery.
type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validate,
		logger:      logger,
	}
}

func message(msg string) *operation.MessageOutput {
	return &operation.MessageOutput{Body: dto.MessageDTO{Message: msg}}
}

func (h *AuthHandler) Register(ctx context.Context, input *operation.RegisterInput) (*operation.RegisterOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	user, err := h.authService.Register(ctx, service.RegisterInput{
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		Telephone: input.Body.Telephone,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to register user")
	}
	return &operation.RegisterOutput{Body: toUserDTO(user)}, nil
}

func (h *AuthHandler) Login(ctx context.Context, input *operation.LoginInput) (*operation.AuthOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	pair, user, err := h.authService.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to log in")
	}
	u := toUserDTO(user)
	return &operation.AuthOutput{
		Body: dto.AuthResponseDTO{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
			User:         &u,
		},
	}, nil
}

func (h *AuthHandler) Refresh(ctx context.Context, input *operation.RefreshInput) (*operation.AuthOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	pair, err := h.authService.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to refresh session")
	}
	return &operation.AuthOutput{
		Body: dto.AuthResponseDTO{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
		},
	}, nil
}

func (h *AuthHandler) Logout(ctx context.Context, input *operation.LogoutInput) (*operation.NoContentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.authService.Logout(ctx, p.ID); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to log out")
	}
	return &operation.NoContentOutput{}, nil
}

func (h *AuthHandler) VerifyEmail(ctx context.Context, input *operation.VerifyEmailInput) (*operation.MessageOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	if err := h.authService.VerifyEmail(ctx, input.Body.Token); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to verify email")
	}
	return message("Email verified"), nil
}

func (h *AuthHandler) ResendVerification(ctx context.Context, input *operation.EmailInput) (*operation.MessageOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	if err := h.authService.ResendVerification(ctx, input.Body.Email); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to resend verification email")
	}
	return message("Verification email sent"), nil
}

func (h *AuthHandler) ForgotPassword(ctx context.Context, input *operation.EmailInput) (*operation.MessageOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	if err := h.authService.ForgotPassword(ctx, input.Body.Email); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to start password reset")
	}
	return message("If the email is registered, a reset link has been sent"), nil
}

func (h *AuthHandler) ResetPassword(ctx context.Context, input *operation.ResetPasswordInput) (*operation.MessageOutput, error) {
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	if err := h.authService.ResetPassword(ctx, input.Body.Token, input.Body.Password); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to reset password")
	}
	return message("Password updated"), nil
}

func (h *AuthHandler) ChangePassword(ctx context.Context, input *operation.ChangePasswordInput) (*operation.MessageOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	if err := h.authService.ChangePassword(ctx, p.ID, input.Body.CurrentPassword, input.Body.NewPassword); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to change password")
	}
	return message("Password updated"), nil
}
