package ports

import (
	"context"

	"github.com/enewspaper/newsroom/internal/core/domain"
)

// CategoryRepository defines persistence for menu categories.
type CategoryRepository interface {
	List(ctx context.Context, status domain.CategoryStatus) ([]*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, id, name string, displayOrder int) (*domain.Category, error)
	// TransitionStatus changes status only when the current status equals from.
	TransitionStatus(ctx context.Context, id string, from, to domain.CategoryStatus) error
	Delete(ctx context.Context, id string) error
}

// CategoryInput is the add/update payload.
type CategoryInput struct {
	Name         string `json:"name"          validate:"required,min=2,max=60"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// CategoryService defines the back-office use cases for categories.
type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	ListActive(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, in CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id string, in CategoryInput) (*domain.Category, error)
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// AdminService covers administrator login and author status management.
type AdminService interface {
	// Login returns a signed bearer token for an activated administrator.
	Login(ctx context.Context, identifier, password string) (string, *domain.Account, error)
	ListAuthors(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error)
	ActivateAuthor(ctx context.Context, id string) error
	DeactivateAuthor(ctx context.Context, id string) error
	// EnsureAdmin creates an activated administrator if none with that username exists.
	EnsureAdmin(ctx context.Context, username, email, password string) (*domain.Account, error)
}
