package ports

import (
	"context"
	"time"

	"github.com/enewspaper/newsroom/internal/core/domain"
)

// AccountRepository defines persistence for author and admin accounts.
// Lookups return domain.ErrAccountNotFound when nothing matches.
type AccountRepository interface {
	// Create inserts a new account. Unique violations are reported as
	// domain.ErrDuplicateUsername or domain.ErrDuplicateEmail.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByTokenHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (*domain.Account, error)
	FindByRememberTokenHash(ctx context.Context, hash string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)

	// SetToken stores token in the slot for token.Purpose, replacing any previous one.
	SetToken(ctx context.Context, id string, token domain.Token) error

	// ConsumeToken marks the token consumed only if it is still unconsumed and
	// its hash matches. It reports whether this call performed the transition.
	ConsumeToken(ctx context.Context, id string, purpose domain.TokenPurpose, hash string, at time.Time) (bool, error)

	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error

	// TransitionStatus changes status only when the current status equals from.
	// It returns domain.ErrInvalidTransition when the account is not in from.
	TransitionStatus(ctx context.Context, id string, from, to domain.AccountStatus) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetRememberToken stores hash; an empty hash clears the token.
	SetRememberToken(ctx context.Context, id, hash string) error
}

// AccountFilter narrows account listings in the back office.
type AccountFilter struct {
	Role   string               // optional
	Status domain.AccountStatus // optional
}
