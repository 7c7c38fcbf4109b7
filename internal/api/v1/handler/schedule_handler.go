package handler

import (
	"context"
	"time"

	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ScheduleHandler serves class schedules and the calendar grids built on them.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	calendarService service.CalendarService
	location        *time.Location
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewScheduleHandler(
	scheduleService service.ScheduleService,
	calendarService service.CalendarService,
	location *time.Location,
	validate *validator.Validate,
	logger zerolog.Logger,
) *ScheduleHandler {
	if location == nil {
		location = time.UTC
	}
	return &ScheduleHandler{
		scheduleService: scheduleService,
		calendarService: calendarService,
		location:        location,
		validate:        validate,
		logger:          logger,
	}
}

// Generate creates hourly classes over a date range, or none at all on overlap.
func (h *ScheduleHandler) Generate(ctx context.Context, input *operation.GenerateSchedulesInput) (*operation.SchedulesOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	created, err := h.scheduleService.Generate(ctx, p, service.GenerateScheduleInput{
		TeacherID:   input.Body.TeacherID,
		Title:       input.Body.Title,
		StartDate:   input.Body.StartDate,
		EndDate:     input.Body.EndDate,
		StartHour:   input.Body.StartHour,
		EndHour:     input.Body.EndHour,
		MaxCapacity: input.Body.MaxCapacity,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to generate class schedules")
	}
	return &operation.SchedulesOutput{Body: created}, nil
}

func (h *ScheduleHandler) List(ctx context.Context, input *operation.ListSchedulesInput) (*operation.ListSchedulesOutput, error) {
	page, err := h.scheduleService.List(ctx, input.Page, input.PerPage)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list class schedules")
	}
	return &operation.ListSchedulesOutput{Body: page}, nil
}

func (h *ScheduleHandler) ListAvailable(ctx context.Context, input *operation.ListSchedulesInput) (*operation.ListAvailabilityOutput, error) {
	page, err := h.scheduleService.ListWithAvailability(ctx, input.Page, input.PerPage)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list class availability")
	}
	return &operation.ListAvailabilityOutput{Body: page}, nil
}

func (h *ScheduleHandler) ListByRange(ctx context.Context, input *operation.SchedulesByRangeInput) (*operation.SchedulesByTeacherOutput, error) {
	from, to, err := parseRange(input.RangeInput, h.location)
	if err != nil {
		return nil, err
	}
	grouped, err := h.scheduleService.ListByTeacherRange(ctx, from, to)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list class schedules")
	}
	return &operation.SchedulesByTeacherOutput{Body: grouped}, nil
}

func (h *ScheduleHandler) Get(ctx context.Context, input *operation.IDInput) (*operation.ScheduleOutput, error) {
	cs, err := h.scheduleService.Get(ctx, input.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get class schedule")
	}
	return &operation.ScheduleOutput{Body: *cs}, nil
}

func (h *ScheduleHandler) Update(ctx context.Context, input *operation.UpdateScheduleInput) (*operation.ScheduleOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	cs, err := h.scheduleService.Update(ctx, p, input.ID, service.UpdateScheduleInput{
		Title:       input.Body.Title,
		MaxCapacity: input.Body.MaxCapacity,
		TeacherID:   input.Body.TeacherID,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update class schedule")
	}
	return &operation.ScheduleOutput{Body: *cs}, nil
}

func (h *ScheduleHandler) Delete(ctx context.Context, input *operation.IDInput) (*operation.DeleteScheduleOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.scheduleService.Delete(ctx, p, input.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to delete class schedule")
	}
	return &operation.DeleteScheduleOutput{Body: *res}, nil
}

// ========== CALENDAR ==========

func (h *ScheduleHandler) PublicCalendar(ctx context.Context, input *operation.CalendarInput) (*operation.CalendarOutput, error) {
	from, to, err := parseRange(input.RangeInput, h.location)
	if err != nil {
		return nil, err
	}
	cal, err := h.calendarService.Public(ctx, from, to)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build calendar")
	}
	return &operation.CalendarOutput{Body: *cal}, nil
}

func (h *ScheduleHandler) AdminCalendar(ctx context.Context, input *operation.CalendarInput) (*operation.CalendarOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err := parseRange(input.RangeInput, h.location)
	if err != nil {
		return nil, err
	}
	cal, err := h.calendarService.Admin(ctx, p, from, to)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to build calendar")
	}
	return &operation.CalendarOutput{Body: *cal}, nil
}
