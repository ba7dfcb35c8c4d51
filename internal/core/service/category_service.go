package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

type CategoryService struct {
	repo     ports.CategoryRepository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, logger zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, validate: newValidator(), logger: logger}
}

// List returns every category ordered by display order.
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx, "")
}

// ListActive returns the categories shown in the public menu.
func (s *CategoryService) ListActive(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx, domain.StatusActivated)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds an Activated category. Names are unique.
func (s *CategoryService) Create(ctx context.Context, in ports.CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(s.validate, in).OrNil(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Category{
		Name:         in.Name,
		DisplayOrder: in.DisplayOrder,
		Status:       domain.StatusActivated,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, nameTaken(err)
	}
	s.logger.Info().Str("category_id", created.ID).Str("name", created.Name).Msg("category created")
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in ports.CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(s.validate, in).OrNil(); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, in.Name, in.DisplayOrder)
	if err != nil {
		return nil, nameTaken(err)
	}
	return updated, nil
}

// Activate is only allowed from Deactivated.
func (s *CategoryService) Activate(ctx context.Context, id string) error {
	return s.repo.TransitionStatus(ctx, id, domain.StatusDeactivated, domain.StatusActivated)
}

// Deactivate is only allowed from Activated.
func (s *CategoryService) Deactivate(ctx context.Context, id string) error {
	return s.repo.TransitionStatus(ctx, id, domain.StatusActivated, domain.StatusDeactivated)
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

// nameTaken turns a duplicate name into a field error.
func nameTaken(err error) error {
	if errors.Is(err, domain.ErrCategoryExists) {
		verr := domain.NewValidationError()
		verr.Add("name", msgCategoryTaken)
		return verr
	}
	return err
}
