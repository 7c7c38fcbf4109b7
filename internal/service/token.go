package service

import (
	"errors"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/util"
)

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies the access/refresh JWT pair.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue returns a new pair and the id of the refresh token, which is what the
// user row remembers.
func (t *TokenIssuer) Issue(u *model.User) (TokenPair, string, error) {
	now := t.now()
	access, accessClaims, err := util.SignJWT(t.cfg.AccessSecret, u.ID, u.Email, string(u.Role), util.TokenTypeAccess, t.cfg.AccessTTL, now)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, refreshClaims, err := util.SignJWT(t.cfg.RefreshSecret, u.ID, u.Email, string(u.Role), util.TokenTypeRefresh, t.cfg.RefreshTTL, now)
	if err != nil {
		return TokenPair{}, "", err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessClaims.ExpiresAt.Time,
	}, refreshClaims.ID, nil
}

// ParseAccess validates an access token and returns the principal it names.
func (t *TokenIssuer) ParseAccess(token string) (model.Principal, error) {
	claims, err := util.ValidateJWT(token, t.cfg.AccessSecret, util.TokenTypeAccess)
	if err != nil {
		return model.Principal{}, errors.Join(ErrInvalidSession, err)
	}
	return model.Principal{ID: claims.Subject, Role: model.Role(claims.Role)}, nil
}

func (t *TokenIssuer) ParseRefresh(token string) (*util.Claims, error) {
	claims, err := util.ValidateJWT(token, t.cfg.RefreshSecret, util.TokenTypeRefresh)
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	return claims, nil
}
