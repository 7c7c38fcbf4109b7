package service

import (
	"context"
	"errors"
	"strings"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// normalizePage applies paging defaults.
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func requireAdmin(p model.Principal) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// sendEmail delivers a notification on a best-effort basis; failures are only logged.
func sendEmail(ctx context.Context, logger zerolog.Logger, n notify.Notifier, to, subject, template string, data map[string]any) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, to, subject, template, data); err != nil {
		logger.Warn().Err(err).Str("template", template).Str("to", to).Msg("Failed to send email")
	}
}

// mapRepoErr translates constraint violations reported by repositories.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrBookingExists):
		return ErrDuplicateBooking
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailAlreadyRegistered
	case errors.Is(err, repository.ErrScheduleOverlap):
		return ErrScheduleOverlap
	case errors.Is(err, repository.ErrTransactionExists):
		return ErrDuplicateTransaction
	case errors.Is(err, repository.ErrCreditsOutOfRange):
		return invalid("remaining credits out of range")
	case errors.Is(err, repository.ErrInvalidReference):
		return invalid("referenced record does not exist")
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
