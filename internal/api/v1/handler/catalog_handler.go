package handler

import (
	"context"

	"github.com/erfajc97/anko-back/internal/api/v1/operation"
	"github.com/erfajc97/anko-back/internal/middleware"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CatalogHandler serves teachers and class packages.
type CatalogHandler struct {
	teacherService service.TeacherService
	packageService service.PackageService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewCatalogHandler(
	teacherService service.TeacherService,
	packageService service.PackageService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		teacherService: teacherService,
		packageService: packageService,
		validate:       validate,
		logger:         logger,
	}
}

// ========== TEACHERS ==========

func (h *CatalogHandler) CreateTeacher(ctx context.Context, input *operation.CreateTeacherInput) (*operation.TeacherOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	teacher, err := h.teacherService.Create(ctx, p, service.TeacherInput{
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create teacher")
	}
	return &operation.TeacherOutput{Body: *teacher}, nil
}

func (h *CatalogHandler) ListTeachers(ctx context.Context, input *operation.ListTeachersInput) (*operation.ListTeachersOutput, error) {
	teachers, err := h.teacherService.List(ctx)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list teachers")
	}
	return &operation.ListTeachersOutput{Body: teachers}, nil
}

func (h *CatalogHandler) GetTeacher(ctx context.Context, input *operation.IDInput) (*operation.TeacherOutput, error) {
	teacher, err := h.teacherService.Get(ctx, input.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get teacher")
	}
	return &operation.TeacherOutput{Body: *teacher}, nil
}

func (h *CatalogHandler) UpdateTeacher(ctx context.Context, input *operation.UpdateTeacherInput) (*operation.TeacherOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	teacher, err := h.teacherService.Update(ctx, p, input.ID, service.TeacherInput{
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update teacher")
	}
	return &operation.TeacherOutput{Body: *teacher}, nil
}

func (h *CatalogHandler) DeleteTeacher(ctx context.Context, input *operation.IDInput) (*operation.NoContentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.teacherService.Delete(ctx, p, input.ID); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to delete teacher")
	}
	return &operation.NoContentOutput{}, nil
}

// ========== CLASS PACKAGES ==========

func (h *CatalogHandler) CreatePackage(ctx context.Context, input *operation.CreatePackageInput) (*operation.PackageOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	cp, err := h.packageService.Create(ctx, p, service.CreatePackageInput{
		Name:         input.Body.Name,
		Description:  input.Body.Description,
		PriceCents:   input.Body.PriceCents,
		ClassCredits: input.Body.ClassCredits,
		ValidityDays: input.Body.ValidityDays,
		IsActive:     input.Body.IsActive,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create class package")
	}
	return &operation.PackageOutput{Body: *cp}, nil
}

// ListPackages shows inactive packages to administrators only; anonymous callers are allowed.
func (h *CatalogHandler) ListPackages(ctx context.Context, input *operation.ListPackagesInput) (*operation.ListPackagesOutput, error) {
	p, _ := middleware.PrincipalFromContext(ctx)
	packages, err := h.packageService.List(ctx, p)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list class packages")
	}
	return &operation.ListPackagesOutput{Body: packages}, nil
}

func (h *CatalogHandler) GetPackage(ctx context.Context, input *operation.IDInput) (*operation.PackageOutput, error) {
	p, _ := middleware.PrincipalFromContext(ctx)
	cp, err := h.packageService.Get(ctx, p, input.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to get class package")
	}
	return &operation.PackageOutput{Body: *cp}, nil
}

func (h *CatalogHandler) UpdatePackage(ctx context.Context, input *operation.UpdatePackageInput) (*operation.PackageOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}
	cp, err := h.packageService.Update(ctx, p, input.ID, service.UpdatePackageInput{
		Name:         input.Body.Name,
		Description:  input.Body.Description,
		PriceCents:   input.Body.PriceCents,
		ClassCredits: input.Body.ClassCredits,
		ValidityDays: input.Body.ValidityDays,
		IsActive:     input.Body.IsActive,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update class package")
	}
	return &operation.PackageOutput{Body: *cp}, nil
}

func (h *CatalogHandler) DeletePackage(ctx context.Context, input *operation.IDInput) (*operation.NoContentOutput, error) {
	p, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.packageService.Delete(ctx, p, input.ID); err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to delete class package")
	}
	return &operation.NoContentOutput{}, nil
}
