package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	StatusPending     AccountStatus = "Pending"
	StatusActivated   AccountStatus = "Activated"
	StatusDeactivated AccountStatus = "Deactivated"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActivated, StatusDeactivated:
		return true
	}
	return false
}

// Account models a registered author or administrator.
type Account struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         string        `json:"role"`
	Status       AccountStatus `json:"status"`

	// Tokens holds at most one token per purpose.
	Tokens map[TokenPurpose]Token `json:"-"`

	RememberTokenHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Token returns the token stored for purpose, if any.
func (a *Account) Token(purpose TokenPurpose) (Token, bool) {
	if a.Tokens == nil {
		return Token{}, false
	}
	t, ok := a.Tokens[purpose]
	return t, ok
}

// HasUsableToken reports whether a non-expired, unconsumed token exists for purpose.
func (a *Account) HasUsableToken(purpose TokenPurpose, now time.Time) bool {
	t, ok := a.Token(purpose)
	return ok && t.UsableAt(now)
}

func (a *Account) IsActivated() bool { return a.Status == StatusActivated }

func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }
