package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// AuthService implements the author signup, login and email token flows.
type AuthService struct {
	creds      *CredentialStore
	tokens     *TokenService
	sessions   ports.SessionStore
	mailer     ports.Mailer
	validate   *validator.Validate
	sessionTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewAuthService(
	creds *CredentialStore,
	tokens *TokenService,
	sessions ports.SessionStore,
	mailer ports.Mailer,
	sessionTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		creds:      creds,
		tokens:     tokens,
		sessions:   sessions,
		mailer:     mailer,
		validate:   newValidator(),
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Signup validates the form, stores a Pending account and mails its
// verification link. When only the mail fails the account is kept and
// returned alongside an error wrapping domain.ErrMailDelivery.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	verr := validateStruct(s.validate, in)
	if err := s.checkTaken(ctx, in, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	account, raw, err := s.creds.CreateAccount(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		// Lost a uniqueness race with a concurrent signup.
		if errors.Is(err, domain.ErrDuplicateUsername) {
			verr.Add("username", msgUsernameTaken)
			return nil, verr
		}
		if errors.Is(err, domain.ErrDuplicateEmail) {
			verr.Add("email", msgEmailTaken)
			return nil, verr
		}
		return nil, oops.Code("SIGNUP_FAILED").With("operation", "create account").Wrap(err)
	}

	s.logger.Info().Str("account_id", account.ID).Str("username", account.Username).Msg("account created")

	delivery, err := s.mailer.SendVerification(ctx, account.Email, raw)
	return account, checkDelivery(account.Email, delivery, err)
}

// checkTaken adds uniqueness messages for fields that are otherwise valid.
func (s *AuthService) checkTaken(ctx context.Context, in ports.SignupInput, verr *domain.ValidationError) error {
	if _, bad := verr.Fields["username"]; !bad {
		_, err := s.creds.FindByUsername(ctx, in.Username)
		switch {
		case err == nil:
			verr.Add("username", msgUsernameTaken)
		case !isNotFound(err):
			return oops.Code("SIGNUP_FAILED").With("operation", "find username").Wrap(err)
		}
	}
	if _, bad := verr.Fields["email"]; !bad {
		_, err := s.creds.FindByEmail(ctx, in.Email)
		switch {
		case err == nil:
			verr.Add("email", msgEmailTaken)
		case !isNotFound(err):
			return oops.Code("SIGNUP_FAILED").With("operation", "find email").Wrap(err)
		}
	}
	return nil
}

// Login authenticates by username or email. Unknown identifiers and wrong
// passwords both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.creds.FindByIdentifier(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			s.creds.CheckPassword(nil, in.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, oops.Code("LOGIN_FAILED").With("operation", "find account").Wrap(err)
	}
	if !s.creds.CheckPassword(account, in.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !account.IsActivated() {
		return nil, domain.ErrAccountInactive
	}

	return s.startSession(ctx, account, in.RememberMe)
}

// ResumeFromRememberToken signs in from a remember_me cookie. The token is
// rotated on success.
func (s *AuthService) ResumeFromRememberToken(ctx context.Context, rawToken string) (*ports.LoginResult, error) {
	if !wellFormedToken(rawToken) {
		return nil, domain.ErrInvalidToken
	}
	hash := HashToken(rawToken)

	account, err := s.creds.FindByRememberToken(ctx, hash)
	if isNotFound(err) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, oops.Code("REMEMBER_LOGIN_FAILED").With("operation", "find remember token").Wrap(err)
	}
	if subtle.ConstantTimeCompare([]byte(account.RememberTokenHash), []byte(hash)) != 1 || !account.IsActivated() {
		return nil, domain.ErrInvalidToken
	}

	return s.startSession(ctx, account, true)
}

func (s *AuthService) startSession(ctx context.Context, account *domain.Account, remember bool) (*ports.LoginResult, error) {
	sid, err := s.sessions.Create(ctx, account.ID, s.sessionTTL)
	if err != nil {
		return nil, oops.Code("LOGIN_FAILED").With("operation", "create session").Wrap(err)
	}
	result := &ports.LoginResult{Account: account, SessionID: sid}

	if remember {
		raw, err := newRawToken()
		if err != nil {
			return nil, err
		}
		hash := HashToken(raw)
		if err := s.creds.SetRememberToken(ctx, account.ID, hash); err != nil {
			return nil, oops.Code("LOGIN_FAILED").With("operation", "store remember token").Wrap(err)
		}
		account.RememberTokenHash = hash
		result.RememberToken = raw
	}

	s.logger.Info().Str("account_id", account.ID).Bool("remember", remember).Msg("login")
	return result, nil
}

// ResumeSession resolves a session id. Sessions whose account vanished or is
// no longer Activated are dropped.
func (s *AuthService) ResumeSession(ctx context.Context, sessionID string) (*domain.Account, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	accountID, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	account, err := s.creds.FindByID(ctx, accountID)
	if err != nil && !isNotFound(err) {
		return nil, oops.Code("SESSION_RESUME_FAILED").With("operation", "find account").Wrap(err)
	}
	if err != nil || !account.IsActivated() {
		if derr := s.sessions.Delete(ctx, sessionID); derr != nil {
			s.logger.Warn().Err(derr).Msg("drop stale session")
		}
		return nil, domain.ErrSessionNotFound
	}
	return account, nil
}

// Logout deletes the session and invalidates the stored remember token.
func (s *AuthService) Logout(ctx context.Context, in ports.LogoutInput) error {
	if in.SessionID != "" {
		if err := s.sessions.Delete(ctx, in.SessionID); err != nil {
			return oops.Code("LOGOUT_FAILED").With("operation", "delete session").Wrap(err)
		}
	}
	if in.AccountID != "" {
		if err := s.creds.SetRememberToken(ctx, in.AccountID, ""); err != nil && !isNotFound(err) {
			return oops.Code("LOGOUT_FAILED").With("operation", "clear remember token").Wrap(err)
		}
	}
	return nil
}

// VerifyAccount consumes a verify-email token and activates its Pending
// account. Replays fail with domain.ErrInvalidToken.
func (s *AuthService) VerifyAccount(ctx context.Context, rawToken string) (*domain.Account, error) {
	account, err := s.tokens.Validate(ctx, domain.PurposeVerifyEmail, rawToken)
	if err != nil {
		return nil, err
	}
	if account.Status != domain.StatusPending {
		return nil, domain.ErrInvalidToken
	}

	account, err = s.tokens.Consume(ctx, domain.PurposeVerifyEmail, rawToken)
	if err != nil {
		return nil, err
	}

	err = s.creds.TransitionStatus(ctx, account.ID, domain.StatusPending, domain.StatusActivated)
	if errors.Is(err, domain.ErrInvalidTransition) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, oops.Code("VERIFY_FAILED").With("operation", "activate account").Wrap(err)
	}
	account.Status = domain.StatusActivated

	s.logger.Info().Str("account_id", account.ID).Msg("account verified")
	return account, nil
}

// ResendVerification issues a new verify-email token unless the account is
// already activated or still holds a usable one. Unknown and deactivated
// accounts report ResendSent without sending.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (ports.ResendOutcome, error) {
	email, err := s.checkEmail(email)
	if err != nil {
		return ports.ResendSent, err
	}

	account, err := s.creds.FindByEmail(ctx, email)
	if isNotFound(err) {
		s.logger.Debug().Msg("resend verification for unknown email")
		return ports.ResendSent, nil
	}
	if err != nil {
		return ports.ResendSent, oops.Code("RESEND_FAILED").With("operation", "find account").Wrap(err)
	}

	switch account.Status {
	case domain.StatusActivated:
		return ports.ResendAlreadyActivated, nil
	case domain.StatusDeactivated:
		return ports.ResendSent, nil
	}
	if account.HasUsableToken(domain.PurposeVerifyEmail, s.now()) {
		return ports.ResendAlreadyPending, nil
	}

	raw, _, err := s.tokens.Issue(ctx, account.ID, domain.PurposeVerifyEmail)
	if err != nil {
		return ports.ResendSent, oops.Code("RESEND_FAILED").With("operation", "issue token").Wrap(err)
	}
	delivery, err := s.mailer.SendVerification(ctx, account.Email, raw)
	return ports.ResendSent, checkDelivery(account.Email, delivery, err)
}

// RequestPasswordReset mails a reset link to an activated account unless a
// usable reset token already exists. Callers must not reveal the outcome.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (ports.ResetRequestOutcome, error) {
	email, err := s.checkEmail(email)
	if err != nil {
		return ports.ResetSent, err
	}

	account, err := s.creds.FindByEmail(ctx, email)
	if isNotFound(err) {
		s.logger.Debug().Msg("password reset for unknown email")
		return ports.ResetSent, nil
	}
	if err != nil {
		return ports.ResetSent, oops.Code("RESET_REQUEST_FAILED").With("operation", "find account").Wrap(err)
	}
	if !account.IsActivated() {
		return ports.ResetSent, nil
	}
	if account.HasUsableToken(domain.PurposeResetPassword, s.now()) {
		return ports.ResetAlreadySent, nil
	}

	raw, _, err := s.tokens.Issue(ctx, account.ID, domain.PurposeResetPassword)
	if err != nil {
		return ports.ResetSent, oops.Code("RESET_REQUEST_FAILED").With("operation", "issue token").Wrap(err)
	}
	delivery, err := s.mailer.SendPasswordReset(ctx, account.Email, raw)
	return ports.ResetSent, checkDelivery(account.Email, delivery, err)
}

// CheckResetToken reports whether rawToken may still be used to reset a password.
func (s *AuthService) CheckResetToken(ctx context.Context, rawToken string) error {
	_, err := s.tokens.Validate(ctx, domain.PurposeResetPassword, rawToken)
	return err
}

// CompletePasswordReset checks the token, then the form, then consumes the
// token and stores the new password. Any remember-me token is revoked.
func (s *AuthService) CompletePasswordReset(ctx context.Context, in ports.CompleteResetInput) error {
	if err := s.CheckResetToken(ctx, in.Token); err != nil {
		return err
	}
	if err := validateStruct(s.validate, in).OrNil(); err != nil {
		return err
	}

	account, err := s.tokens.Consume(ctx, domain.PurposeResetPassword, in.Token)
	if err != nil {
		return err
	}
	if err := s.creds.UpdatePassword(ctx, account.ID, in.Password); err != nil {
		return oops.Code("RESET_FAILED").With("operation", "update password").Wrap(err)
	}
	if err := s.creds.SetRememberToken(ctx, account.ID, ""); err != nil {
		return oops.Code("RESET_FAILED").With("operation", "clear remember token").Wrap(err)
	}

	s.logger.Info().Str("account_id", account.ID).Msg("password reset")
	return nil
}

func (s *AuthService) checkEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		verr := domain.NewValidationError()
		verr.Add("email", msgEmailInvalid)
		return "", verr
	}
	return email, nil
}

// checkDelivery folds transport errors and rejected recipients into
// domain.ErrMailDelivery.
func checkDelivery(email string, d ports.Delivery, err error) error {
	if err != nil {
		return oops.Code("MAIL_DELIVERY_FAILED").With("email", email).Wrapf(domain.ErrMailDelivery, "%v", err)
	}
	if !d.AcceptedFor(email) {
		return oops.Code("MAIL_DELIVERY_FAILED").With("email", email).Wrapf(domain.ErrMailDelivery, "recipient rejected")
	}
	return nil
}
