package handler

import (
	"context"

	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserPackageHandler exposes the credit ledger.
type UserPackageHandler struct {
	ledger   service.CreditLedger
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewUserPackageHandler(ledger service.CreditLedger, validate *validator.Validate, logger zerolog.Logger) *UserPackageHandler {
	return &UserPackageHandler{
		ledger:   ledger,
		validate: validate,
		logger:   logger,
	}
}

func (h *UserPackageHandler) Assign(ctx context.Context, input *operation.AssignPackageInput) (*operation.UserPackageOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	up, err := h.ledger.Assign(ctx, p, service.AssignPackageInput{
		PackageID: input.Body.PackageID,
		UserID:    input.Body.UserID,
		Email:     input.Body.Email,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to assign class package")
	}
	return &operation.UserPackageOutput{Body: *up}, nil
}

func (h *UserPackageHandler) List(ctx context.Context, input *operation.ListUserPackagesInput) (*operation.ListUserPackagesOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := h.ledger.List(ctx, p, input.Page, input.PerPage)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list user packages")
	}
	return &operation.ListUserPackagesOutput{Body: page}, nil
}

func (h *UserPackageHandler) ListMine(ctx context.Context, input *operation.MyPackagesInput) (*operation.MyPackagesOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	packages, err := h.ledger.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list user packages")
	}
	return &operation.MyPackagesOutput{Body: packages}, nil
}

func (h *UserPackageHandler) Available(ctx context.Context, input *operation.MyPackagesInput) (*operation.AvailableCreditsOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	available, err := h.ledger.Available(ctx, p.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get available credits")
	}
	return &operation.AvailableCreditsOutput{Body: *available}, nil
}

func (h *UserPackageHandler) Get(ctx context.Context, input *operation.IDInput) (*operation.UserPackageOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	up, err := h.ledger.Get(ctx, p, input.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get user package")
	}
	return &operation.UserPackageOutput{Body: *up}, nil
}

func (h *UserPackageHandler) Update(ctx context.Context, input *operation.UpdateUserPackageInput) (*operation.UserPackageOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	up, err := h.ledger.Update(ctx, p, input.ID, service.UpdateUserPackageInput{
		RemainingCredits: input.Body.RemainingCredits,
		ExpiresAt:        input.Body.ExpiresAt,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update user package")
	}
	return &operation.UserPackageOutput{Body: *up}, nil
}

func (h *UserPackageHandler) Delete(ctx context.Context, input *operation.IDInput) (*operation.NoContentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.Delete(ctx, p, input.ID); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to delete user package")
	}
	return &operation.NoContentOutput{}, nil
}
