package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationTTL   = 24 * time.Hour
	resetTTL          = time.Hour
	minPasswordLength = 8
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Telephone string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error)
	// Refresh rotates the refresh token; the previous one stops working.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
	// ForgotPassword never reports whether the email exists.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, userID, current, password string) error
}

type authService struct {
	users       repository.UserRepository
	tokens      *TokenIssuer
	notifier    notify.Notifier
	frontendURL string
	hashCost    int
	logger      zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *TokenIssuer,
	notifier notify.Notifier,
	frontendURL string,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		hashCost:    bcrypt.DefaultCost,
		logger:      logger.With().Str("service", "AuthService").Logger(),
		now:         time.Now,
	}
}

func (s *authService) hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const maxPasswordBytes = 72

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	// bcrypt counts bytes, not characters
	if len(password) > maxPasswordBytes {
		return invalid("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("a valid email is required")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, invalid("first name is required")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	expires := s.now().Add(verificationTTL)
	u, err := s.users.CreateUser(ctx, &model.User{
		Email:                 email,
		FirstName:             strings.TrimSpace(in.FirstName),
		LastName:              strings.TrimSpace(in.LastName),
		Telephone:             strings.TrimSpace(in.Telephone),
		PasswordHash:          hash,
		Role:                  model.RoleUser,
		VerificationToken:     &token,
		VerificationExpiresAt: &expires,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info().Str("user_id", u.ID).Msg("User registered")
	s.sendVerification(ctx, u, token)
	return u, nil
}

func (s *authService) sendVerification(ctx context.Context, u *model.User, token string) {
	sendEmail(ctx, s.logger, s.notifier, u.Email, "Verify your email", notify.TemplateVerification, map[string]any{
		"name": u.FirstName,
		"link": s.frontendURL + "/verify-email?token=" + token,
	})
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	u, err := s.users.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if u == nil || u.VerificationExpiresAt == nil || !s.now().Before(*u.VerificationExpiresAt) {
		return ErrInvalidToken
	}
	u.IsVerified = true
	u.VerificationToken = nil
	u.VerificationExpiresAt = nil
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("Email verified")
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}
	token := uuid.NewString()
	expires := s.now().Add(verificationTTL)
	u.VerificationToken = &token
	u.VerificationExpiresAt = &expires
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.sendVerification(ctx, u, token)
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, nil, ErrEmailNotVerified
	}
	pair, err := s.startSession(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug().Str("user_id", u.ID).Msg("User logged in")
	return pair, u, nil
}

// startSession issues a pair and stores the hash of the refresh token id.
func (s *authService) startSession(ctx context.Context, u *model.User) (*TokenPair, error) {
	pair, refreshID, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(refreshID)
	if err != nil {
		return nil, err
	}
	u.RefreshTokenHash = &hash
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if u == nil || u.RefreshTokenHash == nil {
		return nil, ErrInvalidSession
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.RefreshTokenHash), []byte(claims.ID)) != nil {
		return nil, ErrInvalidSession
	}
	return s.startSession(ctx, u)
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	u.RefreshTokenHash = nil
	_, err = s.users.UpdateUser(ctx, u)
	return err
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		s.logger.Debug().Msg("Password reset requested for unknown email")
		return nil
	}
	token := uuid.NewString()
	expires := s.now().Add(resetTTL)
	u.ResetToken = &token
	u.ResetExpiresAt = &expires
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	sendEmail(ctx, s.logger, s.notifier, u.Email, "Reset your password", notify.TemplatePasswordReset, map[string]any{
		"name": u.FirstName,
		"link": s.frontendURL + "/reset-password?token=" + token,
	})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidToken
	}
	u, err := s.users.GetUserByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if u == nil || u.ResetExpiresAt == nil || !s.now().Before(*u.ResetExpiresAt) {
		return ErrInvalidToken
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ResetToken = nil
	u.ResetExpiresAt = nil
	// outstanding sessions die with the old password
	u.RefreshTokenHash = nil
	_, err = s.users.UpdateUser(ctx, u)
	return err
}

func (s *authService) ChangePassword(ctx context.Context, userID, current, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	_, err = s.users.UpdateUser(ctx, u)
	return err
}
