package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

// CreditLedger tracks class credits bought through packages.
type CreditLedger interface {
	// ConsumeClass takes one credit from the user's oldest usable package.
	ConsumeClass(ctx context.Context, userID string) (*model.UserPackage, error)
	// RefundClass returns one credit to the user's newest package that has room for it.
	RefundClass(ctx context.Context, userID string) (*model.UserPackage, error)
	Available(ctx context.Context, userID string) (*model.AvailableCredits, error)
	// Grant creates a full user package from the catalog entry.
	Grant(ctx context.Context, userID, packageID string, source model.PackageSource) (*model.UserPackage, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserPackage, error)
	List(ctx context.Context, p model.Principal, page, perPage int) (model.Page[model.UserPackage], error)
	Get(ctx context.Context, p model.Principal, id string) (*model.UserPackage, error)
	Update(ctx context.Context, p model.Principal, id string, in UpdateUserPackageInput) (*model.UserPackage, error)
	Delete(ctx context.Context, p model.Principal, id string) error
	// Assign grants a package to a user identified by id or email.
	Assign(ctx context.Context, p model.Principal, in AssignPackageInput) (*model.UserPackage, error)
}

type UpdateUserPackageInput struct {
	RemainingCredits *int
	ExpiresAt        *time.Time
}

type AssignPackageInput struct {
	PackageID string
	UserID    string
	Email     string
}

type creditLedger struct {
	tx       repository.Transactor
	credits  repository.UserPackageRepository
	packages repository.ClassPackageRepository
	users    repository.UserRepository
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewCreditLedger(
	tx repository.Transactor,
	credits repository.UserPackageRepository,
	packages repository.ClassPackageRepository,
	users repository.UserRepository,
	notifier notify.Notifier,
	logger zerolog.Logger,
) CreditLedger {
	return &creditLedger{
		tx:       tx,
		credits:  credits,
		packages: packages,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("service", "CreditLedger").Logger(),
		now:      time.Now,
	}
}

func (l *creditLedger) ConsumeClass(ctx context.Context, userID string) (*model.UserPackage, error) {
	p, err := l.credits.ConsumeOldest(ctx, userID, l.now())
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoAvailableCredits
	}
	l.logger.Debug().Str("user_id", userID).Str("user_package_id", p.ID).Int("remaining", p.RemainingCredits).Msg("Credit consumed")
	return p, nil
}

func (l *creditLedger) RefundClass(ctx context.Context, userID string) (*model.UserPackage, error) {
	p, err := l.credits.RefundNewest(ctx, userID, l.now())
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoRefundablePackage
	}
	l.logger.Debug().Str("user_id", userID).Str("user_package_id", p.ID).Int("remaining", p.RemainingCredits).Msg("Credit refunded")
	return p, nil
}

func (l *creditLedger) Available(ctx context.Context, userID string) (*model.AvailableCredits, error) {
	packages, err := l.credits.ListUsable(ctx, userID, l.now())
	if err != nil {
		return nil, err
	}
	out := &model.AvailableCredits{Packages: packages}
	if out.Packages == nil {
		out.Packages = []model.UserPackage{}
	}
	for _, p := range packages {
		out.TotalAvailable += p.RemainingCredits
	}
	return out, nil
}

func (l *creditLedger) Grant(ctx context.Context, userID, packageID string, source model.PackageSource) (*model.UserPackage, error) {
	cp, err := l.packages.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, ErrPackageNotFound
	}
	now := l.now()
	created, err := l.credits.CreateUserPackage(ctx, &model.UserPackage{
		UserID:           userID,
		ClassPackageID:   cp.ID,
		TotalCredits:     cp.ClassCredits,
		RemainingCredits: cp.ClassCredits,
		Source:           source,
		PurchasedAt:      now,
		ExpiresAt:        model.ExpiryFor(now, cp.ValidityDays),
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	created.ClassPackage = cp
	l.logger.Info().Str("user_id", userID).Str("package_id", cp.ID).Str("source", string(source)).Msg("Package granted")
	return created, nil
}

func (l *creditLedger) ListByUser(ctx context.Context, userID string) ([]model.UserPackage, error) {
	packages, err := l.credits.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if packages == nil {
		packages = []model.UserPackage{}
	}
	return packages, nil
}

func (l *creditLedger) List(ctx context.Context, p model.Principal, page, perPage int) (model.Page[model.UserPackage], error) {
	if err := requireAdmin(p); err != nil {
		return model.Page[model.UserPackage]{}, err
	}
	page, perPage = normalizePage(page, perPage)
	items, total, err := l.credits.ListUserPackages(ctx, page, perPage)
	if err != nil {
		return model.Page[model.UserPackage]{}, err
	}
	return model.NewPage(items, page, perPage, total), nil
}

func (l *creditLedger) Get(ctx context.Context, p model.Principal, id string) (*model.UserPackage, error) {
	up, err := l.credits.GetUserPackageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if up == nil {
		return nil, ErrUserPackageNotFound
	}
	if up.UserID != p.ID && !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return up, nil
}

func (l *creditLedger) Update(ctx context.Context, p model.Principal, id string, in UpdateUserPackageInput) (*model.UserPackage, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var updated *model.UserPackage
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		up, err := l.credits.GetUserPackageByID(ctx, id)
		if err != nil {
			return err
		}
		if up == nil {
			return ErrUserPackageNotFound
		}
		if in.RemainingCredits != nil {
			if *in.RemainingCredits < 0 || *in.RemainingCredits > up.TotalCredits {
				return invalid("remaining credits must be between 0 and %d", up.TotalCredits)
			}
			up.RemainingCredits = *in.RemainingCredits
		}
		if in.ExpiresAt != nil {
			if !in.ExpiresAt.After(up.PurchasedAt) {
				return invalid("expiry must be after the purchase date")
			}
			up.ExpiresAt = *in.ExpiresAt
		}
		updated, err = l.credits.UpdateUserPackage(ctx, up)
		if err != nil {
			return mapRepoErr(err)
		}
		if updated == nil {
			return ErrUserPackageNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (l *creditLedger) Delete(ctx context.Context, p model.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	up, err := l.credits.GetUserPackageByID(ctx, id)
	if err != nil {
		return err
	}
	if up == nil {
		return ErrUserPackageNotFound
	}
	return l.credits.DeleteUserPackage(ctx, id)
}

func (l *creditLedger) Assign(ctx context.Context, p model.Principal, in AssignPackageInput) (*model.UserPackage, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var user *model.User
	var err error
	switch {
	case in.UserID != "":
		user, err = l.users.GetUserByID(ctx, in.UserID)
	case strings.TrimSpace(in.Email) != "":
		user, err = l.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	default:
		return nil, invalid("user id or email is required")
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	granted, err := l.Grant(ctx, user.ID, in.PackageID, model.SourceAdmin)
	if err != nil {
		return nil, err
	}
	sendEmail(ctx, l.logger, l.notifier, user.Email, "Your class package is ready", notify.TemplatePackagePurchase, purchaseEmailData(user, granted))
	return granted, nil
}

func purchaseEmailData(u *model.User, up *model.UserPackage) map[string]any {
	data := map[string]any{
		"name":       u.FullName(),
		"credits":    up.TotalCredits,
		"expires_at": up.ExpiresAt.Format("2006-01-02"),
	}
	if up.ClassPackage != nil {
		data["package"] = up.ClassPackage.Name
		data["price"] = fmt.Sprintf("%.2f", float64(up.ClassPackage.PriceCents)/100)
	}
	return data
}
