package handler

import (
	"context"

	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentHandler records payment attempts and their outcome reported by the gateway caller.
type PaymentHandler struct {
	paymentService service.PaymentService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, validate *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validate,
		logger:         logger,
	}
}

func (h *PaymentHandler) Create(ctx context.Context, input *operation.CreatePaymentInput) (*operation.PaymentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	tx, err := h.paymentService.Create(ctx, p, service.CreatePaymentInput{
		PackageID:           input.Body.PackageID,
		ClientTransactionID: input.Body.ClientTransactionID,
		AmountCents:         input.Body.AmountCents,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create payment")
	}
	return &operation.PaymentOutput{Body: *tx}, nil
}

func (h *PaymentHandler) ListPending(ctx context.Context, input *operation.ListPendingPaymentsInput) (*operation.ListPaymentsOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := h.paymentService.ListPendingByUser(ctx, p.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list pending payments")
	}
	return &operation.ListPaymentsOutput{Body: pending}, nil
}

func (h *PaymentHandler) Get(ctx context.Context, input *operation.GetPaymentInput) (*operation.PaymentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := h.paymentService.Get(ctx, p, input.ClientTransactionID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get payment")
	}
	return &operation.PaymentOutput{Body: *tx}, nil
}

// UpdateStatus is called by the payment integration with an admin token.
func (h *PaymentHandler) UpdateStatus(ctx context.Context, input *operation.UpdatePaymentStatusInput) (*operation.PaymentStatusOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, huma.Error403Forbidden(service.ErrForbidden.Error())
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	res, err := h.paymentService.UpdateStatus(ctx, input.ClientTransactionID, model.PaymentStatus(input.Body.Status))
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update payment status")
	}
	if res.Changed {
		h.logger.Info().
			Str("client_transaction_id", input.ClientTransactionID).
			Str("status", input.Body.Status).
			Bool("granted", res.GrantedPackage != nil).
			Msg("Payment status updated")
	}
	return &operation.PaymentStatusOutput{Body: *res}, nil
}
