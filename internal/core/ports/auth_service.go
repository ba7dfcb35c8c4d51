package ports

import (
	"context"

	"github.com/enewspaper/newsroom/internal/core/domain"
)

// SignupInput is the raw signup form.
type SignupInput struct {
	Username        string `form:"username"         validate:"required,alphanum,min=4,max=30"`
	Email           string `form:"email"            validate:"required,email"`
	Password        string `form:"password"         validate:"required,min=4,max=30,bcrypt"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// LoginInput carries credentials; Identifier is a username or an email.
type LoginInput struct {
	Identifier string
	Password   string
	RememberMe bool
}

// LoginResult is returned after a successful password or remember-me login.
type LoginResult struct {
	Account   *domain.Account
	SessionID string
	// RememberToken is the raw value for the remember_me cookie. Empty when
	// remember-me was not requested.
	RememberToken string
}

// LogoutInput identifies what to tear down on logout.
type LogoutInput struct {
	SessionID string
	AccountID string
}

// CompleteResetInput is the password reset form together with its token.
type CompleteResetInput struct {
	Token           string `param:"token"`
	Password        string `form:"password"         validate:"required,min=4,max=30,bcrypt"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// ResendOutcome is the observable result of ResendVerification.
type ResendOutcome int

const (
	ResendSent ResendOutcome = iota
	ResendAlreadyActivated
	ResendAlreadyPending
)

// ResetRequestOutcome is the result of RequestPasswordReset. Callers must render
// the same response for every value.
type ResetRequestOutcome int

const (
	ResetSent ResetRequestOutcome = iota
	ResetAlreadySent
)

// AuthService orchestrates signup, login and the email token flows.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.Account, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, in LogoutInput) error

	// ResumeSession returns the activated account bound to sessionID, or
	// domain.ErrSessionNotFound.
	ResumeSession(ctx context.Context, sessionID string) (*domain.Account, error)
	ResumeFromRememberToken(ctx context.Context, rawToken string) (*LoginResult, error)

	VerifyAccount(ctx context.Context, rawToken string) (*domain.Account, error)
	ResendVerification(ctx context.Context, email string) (ResendOutcome, error)

	RequestPasswordReset(ctx context.Context, email string) (ResetRequestOutcome, error)
	CheckResetToken(ctx context.Context, rawToken string) error
	CompletePasswordReset(ctx context.Context, in CompleteResetInput) error
}
