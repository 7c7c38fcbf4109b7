package handler

import (
	"context"

	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type BookingHandler struct {
	bookingService service.BookingService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewBookingHandler(bookingService service.BookingService, validate *validator.Validate, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		validate:       validate,
		logger:         logger,
	}
}

func (h *BookingHandler) Create(ctx context.Context, input *operation.CreateBookingInput) (*operation.BookingOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	b, err := h.bookingService.Create(ctx, p, input.Body.ClassScheduleID, input.Body.UserID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to book class")
	}
	return &operation.BookingOutput{Body: *b}, nil
}

func (h *BookingHandler) List(ctx context.Context, input *operation.ListBookingsInput) (*operation.ListBookingsOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := h.bookingService.List(ctx, p, input.Page, input.PerPage)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list bookings")
	}
	return &operation.ListBookingsOutput{Body: page}, nil
}

func (h *BookingHandler) ListMine(ctx context.Context, input *operation.ListBookingsInput) (*operation.ListBookingsOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := h.bookingService.ListByUser(ctx, p.ID, input.Page, input.PerPage)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list bookings")
	}
	return &operation.ListBookingsOutput{Body: page}, nil
}

func (h *BookingHandler) Get(ctx context.Context, input *operation.IDInput) (*operation.BookingOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := h.bookingService.Get(ctx, p, input.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get booking")
	}
	return &operation.BookingOutput{Body: *b}, nil
}

// Cancel removes the booking and gives the credit back.
func (h *BookingHandler) Cancel(ctx context.Context, input *operation.IDInput) (*operation.NoContentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.bookingService.Cancel(ctx, p, input.ID); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to cancel booking")
	}
	return &operation.NoContentOutput{}, nil
}
