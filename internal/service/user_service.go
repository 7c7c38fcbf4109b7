package service

import (
	"context"
	"strings"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/repository"
)

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Telephone *string
}

type UserService interface {
	Get(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*model.User, error)
	List(ctx context.Context, p model.Principal, page, perPage int) (model.Page[model.User], error)
	GetByAdmin(ctx context.Context, p model.Principal, id string) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return nil, invalid("first name is required")
		}
		u.FirstName = name
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Telephone != nil {
		u.Telephone = strings.TrimSpace(*in.Telephone)
	}
	updated, err := s.userRepo.UpdateUser(ctx, u)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

func (s *userService) List(ctx context.Context, p model.Principal, page, perPage int) (model.Page[model.User], error) {
	if err := requireAdmin(p); err != nil {
		return model.Page[model.User]{}, err
	}
	page, perPage = normalizePage(page, perPage)
	users, total, err := s.userRepo.ListUsers(ctx, page, perPage)
	if err != nil {
		return model.Page[model.User]{}, err
	}
	return model.NewPage(users, page, perPage, total), nil
}

func (s *userService) GetByAdmin(ctx context.Context, p model.Principal, id string) (*model.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
