package service

import (
	"context"
	"errors"
	"strings"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

type CreatePackageInput struct {
	Name         string
	Description  string
	PriceCents   int64
	ClassCredits int
	ValidityDays int
	IsActive     *bool
}

type UpdatePackageInput struct {
	Name         *string
	Description  *string
	PriceCents   *int64
	ClassCredits *int
	ValidityDays *int
	IsActive     *bool
}

// PackageService manages the class package catalog. Edits never touch packages
// already sold, since those keep their own credit snapshot.
type PackageService interface {
	Create(ctx context.Context, p model.Principal, in CreatePackageInput) (*model.ClassPackage, error)
	// List returns only active packages unless the principal is an admin.
	List(ctx context.Context, p model.Principal) ([]model.ClassPackage, error)
	Get(ctx context.Context, p model.Principal, id string) (*model.ClassPackage, error)
	Update(ctx context.Context, p model.Principal, id string, in UpdatePackageInput) (*model.ClassPackage, error)
	Delete(ctx context.Context, p model.Principal, id string) error
}

type packageService struct {
	repo   repository.ClassPackageRepository
	logger zerolog.Logger
}

func NewPackageService(repo repository.ClassPackageRepository, logger zerolog.Logger) PackageService {
	return &packageService{repo: repo, logger: logger.With().Str("service", "PackageService").Logger()}
}

func validatePackage(cp *model.ClassPackage) error {
	switch {
	case strings.TrimSpace(cp.Name) == "":
		return invalid("name is required")
	case cp.PriceCents < 0:
		return invalid("price must not be negative")
	case cp.ClassCredits <= 0:
		return invalid("class credits must be positive")
	case cp.ValidityDays <= 0:
		return invalid("validity days must be positive")
	}
	return nil
}

func (s *packageService) Create(ctx context.Context, p model.Principal, in CreatePackageInput) (*model.ClassPackage, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	cp := &model.ClassPackage{
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		PriceCents:   in.PriceCents,
		ClassCredits: in.ClassCredits,
		ValidityDays: in.ValidityDays,
		IsActive:     true,
	}
	if in.IsActive != nil {
		cp.IsActive = *in.IsActive
	}
	if err := validatePackage(cp); err != nil {
		return nil, err
	}
	created, err := s.repo.CreatePackage(ctx, cp)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("package_id", created.ID).Msg("Class package created")
	return created, nil
}

func (s *packageService) List(ctx context.Context, p model.Principal) ([]model.ClassPackage, error) {
	packages, err := s.repo.ListPackages(ctx, !p.IsAdmin())
	if err != nil {
		return nil, err
	}
	if packages == nil {
		packages = []model.ClassPackage{}
	}
	return packages, nil
}

func (s *packageService) Get(ctx context.Context, p model.Principal, id string) (*model.ClassPackage, error) {
	cp, err := s.repo.GetPackageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cp == nil || (!cp.IsActive && !p.IsAdmin()) {
		return nil, ErrPackageNotFound
	}
	return cp, nil
}

func (s *packageService) Update(ctx context.Context, p model.Principal, id string, in UpdatePackageInput) (*model.ClassPackage, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	cp, err := s.repo.GetPackageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, ErrPackageNotFound
	}
	if in.Name != nil {
		cp.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		cp.Description = strings.TrimSpace(*in.Description)
	}
	if in.PriceCents != nil {
		cp.PriceCents = *in.PriceCents
	}
	if in.ClassCredits != nil {
		cp.ClassCredits = *in.ClassCredits
	}
	if in.ValidityDays != nil {
		cp.ValidityDays = *in.ValidityDays
	}
	if in.IsActive != nil {
		cp.IsActive = *in.IsActive
	}
	if err := validatePackage(cp); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdatePackage(ctx, cp)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPackageNotFound
	}
	return updated, nil
}

func (s *packageService) Delete(ctx context.Context, p model.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	cp, err := s.repo.GetPackageByID(ctx, id)
	if err != nil {
		return err
	}
	if cp == nil {
		return ErrPackageNotFound
	}
	n, err := s.repo.CountPurchases(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrPackageInUse
	}
	if err := s.repo.DeletePackage(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrPackageInUse
		}
		return err
	}
	s.logger.Info().Str("package_id", id).Msg("Class package deleted")
	return nil
}
