package service

import (
	"context"
	"errors"
	"strings"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

type TeacherInput struct {
	FirstName string
	LastName  string
}

type TeacherService interface {
	Create(ctx context.Context, p model.Principal, in TeacherInput) (*model.Teacher, error)
	List(ctx context.Context) ([]model.Teacher, error)
	Get(ctx context.Context, id string) (*model.Teacher, error)
	Update(ctx context.Context, p model.Principal, id string, in TeacherInput) (*model.Teacher, error)
	// Delete refuses to remove a teacher that still has schedules.
	Delete(ctx context.Context, p model.Principal, id string) error
}

type teacherService struct {
	repo   repository.TeacherRepository
	logger zerolog.Logger
}

func NewTeacherService(repo repository.TeacherRepository, logger zerolog.Logger) TeacherService {
	return &teacherService{repo: repo, logger: logger.With().Str("service", "TeacherService").Logger()}
}

func (in TeacherInput) normalize() (TeacherInput, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" {
		return in, invalid("first name is required")
	}
	return in, nil
}

func (s *teacherService) Create(ctx context.Context, p model.Principal, in TeacherInput) (*model.Teacher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	t, err := s.repo.CreateTeacher(ctx, &model.Teacher{FirstName: in.FirstName, LastName: in.LastName})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("teacher_id", t.ID).Msg("Teacher created")
	return t, nil
}

func (s *teacherService) List(ctx context.Context) ([]model.Teacher, error) {
	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		return nil, err
	}
	if teachers == nil {
		teachers = []model.Teacher{}
	}
	return teachers, nil
}

func (s *teacherService) Get(ctx context.Context, id string) (*model.Teacher, error) {
	t, err := s.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTeacherNotFound
	}
	return t, nil
}

func (s *teacherService) Update(ctx context.Context, p model.Principal, id string, in TeacherInput) (*model.Teacher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	t, err := s.repo.UpdateTeacher(ctx, &model.Teacher{ID: id, FirstName: in.FirstName, LastName: in.LastName})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTeacherNotFound
	}
	return t, nil
}

func (s *teacherService) Delete(ctx context.Context, p model.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTeacherHasSchedules
	}
	if err := s.repo.DeleteTeacher(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrTeacherHasSchedules
		}
		return err
	}
	s.logger.Info().Str("teacher_id", id).Msg("Teacher deleted")
	return nil
}
