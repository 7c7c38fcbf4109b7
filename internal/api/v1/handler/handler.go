package handler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/erfajc97/anko-back/internal/api/v1/dto"
	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/middleware"
	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// NewValidator reports field errors by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Helper to extract the principal from context (injected by auth middleware)
func getPrincipalFromContext(ctx context.Context) (model.Principal, error) {
	p, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return model.Principal{}, huma.Error401Unauthorized("Authentication required")
	}
	return p, nil
}

func validateBody(v *validator.Validate, body any) error {
	err := v.Struct(body)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return huma.Error400BadRequest("Validation failed", err)
	}
	details := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, &huma.ErrorDetail{
			Message:  fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			Location: "body." + fe.Field(),
			Value:    fe.Value(),
		})
	}
	return huma.Error400BadRequest("Validation failed", details...)
}

// toHTTPError maps a service error onto its HTTP status. Internal errors are logged
// and reported with msg only.
func toHTTPError(logger zerolog.Logger, err error, msg string) error {
	var conflict *service.ScheduleConflictError
	if errors.As(err, &conflict) {
		details := make([]error, 0, len(conflict.Conflicts))
		for i, c := range conflict.Conflicts {
			details = append(details, &huma.ErrorDetail{
				Message:  fmt.Sprintf("%s %s-%s overlaps an existing class", c.Date, c.Start.Format("15:04"), c.End.Format("15:04")),
				Location: fmt.Sprintf("conflicts[%d]", i),
				Value:    c,
			})
		}
		return huma.Error409Conflict(service.ErrScheduleOverlap.Error(), details...)
	}

	switch service.KindOf(err) {
	case service.KindNotFound:
		return huma.Error404NotFound(service.Message(err))
	case service.KindConflict:
		return huma.Error409Conflict(service.Message(err))
	case service.KindBadRequest:
		return huma.Error400BadRequest(service.Message(err))
	case service.KindForbidden:
		return huma.Error403Forbidden(service.Message(err))
	case service.KindUnauthorized:
		return huma.Error401Unauthorized(service.Message(err))
	}
	logger.Error().Err(err).Msg(msg)
	return huma.Error500InternalServerError(msg)
}

// parseRange reads studio-local dates; either bound may be empty.
func parseRange(in operation.RangeInput, loc *time.Location) (*time.Time, *time.Time, error) {
	from, err := parseDate("from", in.From, loc)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseDate("to", in.To, loc)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseDate(field, value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid date", &huma.ErrorDetail{
			Message:  "expected YYYY-MM-DD",
			Location: "query." + field,
			Value:    value,
		})
	}
	return &t, nil
}

func toUserDTO(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:     u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Telephone:  u.Telephone,
		Role:       string(u.Role),
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
