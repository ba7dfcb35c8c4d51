package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// AdminService implements administrator login and author management.
type AdminService struct {
	creds     *CredentialStore
	repo      ports.AccountRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAdminService(creds *CredentialStore, repo ports.AccountRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AdminService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AdminService{creds: creds, repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Login returns a signed bearer token for an activated administrator.
// Authors get domain.ErrForbidden.
func (s *AdminService) Login(ctx context.Context, identifier, password string) (string, *domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.creds.FindByIdentifier(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			s.creds.CheckPassword(nil, password)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, oops.Code("ADMIN_LOGIN_FAILED").With("operation", "find account").Wrap(err)
	}
	if !s.creds.CheckPassword(account, password) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !account.IsAdmin() {
		return "", nil, domain.ErrForbidden
	}
	if !account.IsActivated() {
		return "", nil, domain.ErrAccountInactive
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, oops.Code("ADMIN_LOGIN_FAILED").With("operation", "sign token").Wrap(err)
	}
	return token, account, nil
}

func (s *AdminService) generateToken(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"sub":      account.ID,
		"username": account.Username,
		"role":     account.Role,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// ListAuthors returns author accounts, optionally filtered by status.
func (s *AdminService) ListAuthors(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error) {
	if status != "" && !status.Valid() {
		verr := domain.NewValidationError()
		verr.Add("status", "Status is not valid.")
		return nil, verr
	}
	return s.repo.List(ctx, ports.AccountFilter{Role: domain.RoleAuthor, Status: status})
}

// ActivateAuthor moves a Deactivated author back to Activated.
func (s *AdminService) ActivateAuthor(ctx context.Context, id string) error {
	return s.transitionAuthor(ctx, id, domain.StatusDeactivated, domain.StatusActivated)
}

// DeactivateAuthor blocks an Activated author and revokes their remember-me token.
func (s *AdminService) DeactivateAuthor(ctx context.Context, id string) error {
	if err := s.transitionAuthor(ctx, id, domain.StatusActivated, domain.StatusDeactivated); err != nil {
		return err
	}
	return s.creds.SetRememberToken(ctx, id, "")
}

func (s *AdminService) transitionAuthor(ctx context.Context, id string, from, to domain.AccountStatus) error {
	account, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.creds.TransitionStatus(ctx, id, from, to); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", id).Str("from", string(from)).Str("to", string(to)).Msg("author status changed")
	return nil
}

// EnsureAdmin creates an activated administrator unless the username exists.
// An existing non-admin account with that username is an error.
func (s *AdminService) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.Account, error) {
	existing, err := s.creds.FindByUsername(ctx, username)
	if err == nil {
		if !existing.IsAdmin() {
			return nil, oops.Code("ADMIN_EXISTS_AS_AUTHOR").With("username", username).Wrap(domain.ErrDuplicateUsername)
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, oops.Code("ADMIN_CREATE_FAILED").With("operation", "find username").Wrap(err)
	}

	account, err := s.creds.CreateAdmin(ctx, username, email, password)
	if err != nil {
		return nil, oops.Code("ADMIN_CREATE_FAILED").With("operation", "create admin").Wrap(err)
	}
	s.logger.Info().Str("account_id", account.ID).Str("username", account.Username).Msg("admin created")
	return account, nil
}
