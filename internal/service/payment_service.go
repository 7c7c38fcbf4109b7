package service

import (
	"context"
	"strings"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

type CreatePaymentInput struct {
	PackageID           string
	ClientTransactionID string
	AmountCents         *int64
}

// PaymentStatusResult is the outcome of a status update.
type PaymentStatusResult struct {
	Transaction    *model.PaymentTransaction `json:"transaction"`
	GrantedPackage *model.UserPackage        `json:"granted_package,omitempty"`
	Changed        bool                      `json:"changed"`
}

// PaymentService records payment attempts reported by the external gateway.
type PaymentService interface {
	Create(ctx context.Context, p model.Principal, in CreatePaymentInput) (*model.PaymentTransaction, error)
	Get(ctx context.Context, p model.Principal, clientTxID string) (*model.PaymentTransaction, error)
	ListPendingByUser(ctx context.Context, userID string) ([]model.PaymentTransaction, error)
	// UpdateStatus applies a gateway status. Moving to completed grants exactly one
	// user package in the same transaction; repeating the current status changes nothing.
	UpdateStatus(ctx context.Context, clientTxID string, status model.PaymentStatus) (*PaymentStatusResult, error)
	// ExpireStale fails pending transactions older than olderThan.
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type paymentService struct {
	tx       repository.Transactor
	payments repository.PaymentRepository
	packages repository.ClassPackageRepository
	users    repository.UserRepository
	ledger   CreditLedger
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(
	tx repository.Transactor,
	payments repository.PaymentRepository,
	packages repository.ClassPackageRepository,
	users repository.UserRepository,
	ledger CreditLedger,
	notifier notify.Notifier,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		tx:       tx,
		payments: payments,
		packages: packages,
		users:    users,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger.With().Str("service", "PaymentService").Logger(),
		now:      time.Now,
	}
}

func (s *paymentService) Create(ctx context.Context, p model.Principal, in CreatePaymentInput) (*model.PaymentTransaction, error) {
	clientTxID := strings.TrimSpace(in.ClientTransactionID)
	if clientTxID == "" {
		return nil, invalid("client transaction id is required")
	}
	user, err := s.users.GetUserByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	cp, err := s.packages.GetPackageByID(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if cp == nil || !cp.IsActive {
		return nil, ErrPackageNotFound
	}
	amount := cp.PriceCents
	if in.AmountCents != nil {
		if *in.AmountCents < 0 {
			return nil, invalid("amount must not be negative")
		}
		amount = *in.AmountCents
	}

	created, err := s.payments.CreateTransaction(ctx, &model.PaymentTransaction{
		UserID:              user.ID,
		PackageID:           cp.ID,
		ClientTransactionID: clientTxID,
		AmountCents:         amount,
		Status:              model.PaymentPending,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	created.Package = cp
	s.logger.Info().Str("client_transaction_id", clientTxID).Str("user_id", user.ID).Str("package_id", cp.ID).Msg("Payment transaction created")
	return created, nil
}

func (s *paymentService) Get(ctx context.Context, p model.Principal, clientTxID string) (*model.PaymentTransaction, error) {
	t, err := s.payments.GetByClientTransactionID(ctx, clientTxID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrPaymentNotFound
	}
	if t.UserID != p.ID && !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return t, nil
}

func (s *paymentService) ListPendingByUser(ctx context.Context, userID string) ([]model.PaymentTransaction, error) {
	items, err := s.payments.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.PaymentTransaction{}
	}
	return items, nil
}

func (s *paymentService) UpdateStatus(ctx context.Context, clientTxID string, status model.PaymentStatus) (*PaymentStatusResult, error) {
	if !status.Valid() {
		return nil, invalid("unknown payment status %q", status)
	}
	result := &PaymentStatusResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		*result = PaymentStatusResult{}
		t, err := s.payments.LockByClientTransactionID(ctx, clientTxID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrPaymentNotFound
		}
		if t.Status == status {
			result.Transaction = t
			return nil
		}
		if !t.Status.CanTransition(status) {
			return ErrInvalidTransition
		}
		updated, err := s.payments.UpdateStatus(ctx, t.ID, status)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrPaymentNotFound
		}
		result.Transaction = updated
		result.Changed = true
		if status == model.PaymentCompleted {
			granted, err := s.ledger.Grant(ctx, t.UserID, t.PackageID, model.SourcePurchase)
			if err != nil {
				return err
			}
			result.GrantedPackage = granted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Changed {
		s.logger.Debug().Str("client_transaction_id", clientTxID).Str("status", string(status)).Msg("Payment status unchanged")
		return result, nil
	}
	s.logger.Info().Str("client_transaction_id", clientTxID).Str("status", string(status)).Msg("Payment status updated")

	if result.GrantedPackage != nil {
		user, err := s.users.GetUserByID(ctx, result.Transaction.UserID)
		if err != nil || user == nil {
			s.logger.Warn().Err(err).Str("user_id", result.Transaction.UserID).Msg("Could not load user for purchase email")
			return result, nil
		}
		sendEmail(ctx, s.logger, s.notifier, user.Email, "Your class package is ready", notify.TemplatePackagePurchase, purchaseEmailData(user, result.GrantedPackage))
	}
	return result, nil
}

func (s *paymentService) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.payments.FailPendingBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("Stale pending payments marked as failed")
	}
	return n, nil
}
