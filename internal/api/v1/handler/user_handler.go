package handler

import (
	"context"

	"github.com/erfajc97/anko-back/internal/api/v1/dto"
	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler implements Huma-based user operations
type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validate,
		logger:      logger,
	}
}

// GetUser retrieves the authenticated user's profile
func (h *UserHandler) GetUser(ctx context.Context, input *operation.GetUserInput) (*operation.UserOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.userService.Get(ctx, p.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get user")
	}
	return &operation.UserOutput{Body: toUserDTO(user)}, nil
}

// UpdateUser edits the authenticated user's profile
func (h *UserHandler) UpdateUser(ctx context.Context, input *operation.UpdateUserInput) (*operation.UserOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	user, err := h.userService.UpdateProfile(ctx, p.ID, service.UpdateProfileInput{
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		Telephone: input.Body.Telephone,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update user")
	}
	return &operation.UserOutput{Body: toUserDTO(user)}, nil
}

func (h *UserHandler) ListUsers(ctx context.Context, input *operation.ListUsersInput) (*operation.ListUsersOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := h.userService.List(ctx, p, input.Page, input.PerPage)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list users")
	}
	out := dto.UserPageDTO{
		Content:     make([]dto.UserResponseDTO, 0, len(page.Items)),
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
	}
	for i := range page.Items {
		out.Content = append(out.Content, toUserDTO(&page.Items[i]))
	}
	return &operation.ListUsersOutput{Body: out}, nil
}

func (h *UserHandler) GetUserByID(ctx context.Context, input *operation.GetUserByIDInput) (*operation.UserOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.userService.GetByAdmin(ctx, p, input.UserID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get user")
	}
	return &operation.UserOutput{Body: toUserDTO(user)}, nil
}
