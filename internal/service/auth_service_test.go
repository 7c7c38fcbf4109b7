package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*authService, *memStore, *recordingNotifier) {
	t.Helper()
	store := newMemStore()
	notifier := &recordingNotifier{}
	tokens := NewTokenIssuer(TokenConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})
	svc := NewAuthService(store, tokens, notifier, "https://studio.example/", zerolog.Nop()).(*authService)
	svc.hashCost = bcrypt.MinCost
	return svc, store, notifier
}

func lastLink(t *testing.T, n *recordingNotifier, template string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Template == template {
			return n.sent[i].Data["link"].(string)
		}
	}
	t.Fatalf("no %s email sent", template)
	return ""
}

func tokenFromLink(link string) string {
	_, token, _ := strings.Cut(link, "token=")
	return token
}

func TestRegisterVerifyLogin(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Ana@Example.com", Password: "s3cret-pass", FirstName: "Ana"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ana@example.com" || u.Role != model.RoleUser || u.IsVerified {
		t.Fatalf("unexpected user: %+v", u)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "another-pass", FirstName: "Ana"}); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("expected ErrEmailAlreadyRegistered, got %v", err)
	}

	if _, _, err := svc.Login(ctx, "ana@example.com", "s3cret-pass"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}

	link := lastLink(t, notifier, notify.TemplateVerification)
	if !strings.HasPrefix(link, "https://studio.example/verify-email?token=") {
		t.Errorf("unexpected link %q", link)
	}
	if err := svc.VerifyEmail(ctx, tokenFromLink(link)); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := svc.VerifyEmail(ctx, tokenFromLink(link)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token must be single use, got %v", err)
	}

	if _, _, err := svc.Login(ctx, "ana@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	pair, user, err := svc.Login(ctx, "ANA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	p, err := svc.tokens.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if p.ID != user.ID || p.Role != model.RoleUser {
		t.Errorf("unexpected principal %+v", p)
	}
}

func TestVerificationExpires(t *testing.T) {
	svc, _, notifier := newAuthFixture(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "s3cret-pass", FirstName: "Ana"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token := tokenFromLink(lastLink(t, notifier, notify.TemplateVerification))
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if err := svc.VerifyEmail(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	svc.now = time.Now
	if err := svc.ResendVerification(ctx, "ana@example.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	fresh := tokenFromLink(lastLink(t, notifier, notify.TemplateVerification))
	if fresh == token {
		t.Error("expected a new token")
	}
	if err := svc.VerifyEmail(ctx, fresh); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := svc.ResendVerification(ctx, "ana@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Errorf("expected ErrAlreadyVerified, got %v", err)
	}
}

func verifiedUser(t *testing.T, svc *authService, store *memStore) model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{Email: "ana@example.com", Password: "s3cret-pass", FirstName: "Ana"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	stored := store.users[u.ID]
	stored.IsVerified = true
	store.users[u.ID] = stored
	return stored
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()
	u := verifiedUser(t, svc, store)

	pair, _, err := svc.Login(ctx, u.Email, "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("old refresh token must be rejected, got %v", err)
	}
	if _, err := svc.Refresh(ctx, rotated.AccessToken); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("access token must not refresh, got %v", err)
	}

	if err := svc.Logout(ctx, u.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession after logout, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	svc, store, notifier := newAuthFixture(t)
	ctx := context.Background()
	u := verifiedUser(t, svc, store)

	if err := svc.ForgotPassword(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not be disclosed, got %v", err)
	}
	if err := svc.ForgotPassword(ctx, u.Email); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	token := tokenFromLink(lastLink(t, notifier, notify.TemplatePasswordReset))

	if err := svc.ResetPassword(ctx, token, "short"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "bogus", "brand-new-pass"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "brand-new-pass"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	ctx := context.Background()
	u := verifiedUser(t, svc, store)

	if err := svc.ChangePassword(ctx, u.ID, "wrong-pass", "brand-new-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "s3cret-pass", "brand-new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "brand-new-pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "brand-new-pass", strings.Repeat("ü", 37)); KindOf(err) != KindBadRequest {
		t.Errorf("74-byte password: expected bad request, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	tests := []RegisterInput{
		{Email: "not-an-email", Password: "s3cret-pass", FirstName: "Ana"},
		{Email: "ana@example.com", Password: "short", FirstName: "Ana"},
		{Email: "ana@example.com", Password: "s3cret-pass", FirstName: "  "},
		// 40 characters, 80 bytes
		{Email: "ana@example.com", Password: strings.Repeat("ñ", 40), FirstName: "Ana"},
	}
	for _, in := range tests {
		if _, err := svc.Register(context.Background(), in); KindOf(err) != KindBadRequest {
			t.Errorf("Register(%+v): expected bad request, got %v", in, err)
		}
	}
}
