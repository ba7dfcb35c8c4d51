package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// dummyPassword is hashed once and compared against when an account does not
// exist, so unknown identifiers cost the same as wrong passwords.
const dummyPassword = "newsroom-dummy-password"

// CredentialStore wraps account persistence with password hashing.
type CredentialStore struct {
	repo   ports.AccountRepository
	tokens *TokenService
	cost   int
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentialStore returns a store hashing with the given bcrypt cost.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewCredentialStore(repo ports.AccountRepository, tokens *TokenService, cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{
		repo:   repo,
		tokens: tokens,
		cost:   cost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount stores a Pending author together with a fresh verify-email
// token and returns the raw token for mailing.
func (s *CredentialStore) CreateAccount(ctx context.Context, username, email, rawPassword string) (*domain.Account, string, error) {
	raw, tok, err := s.tokens.Generate(domain.PurposeVerifyEmail)
	if err != nil {
		return nil, "", err
	}
	account, err := s.newAccount(username, email, rawPassword, domain.RoleAuthor, domain.StatusPending)
	if err != nil {
		return nil, "", err
	}
	account.Tokens = map[domain.TokenPurpose]domain.Token{domain.PurposeVerifyEmail: tok}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, "", err
	}
	return created, raw, nil
}

// CreateAdmin stores an Activated administrator. No verification mail is sent.
func (s *CredentialStore) CreateAdmin(ctx context.Context, username, email, rawPassword string) (*domain.Account, error) {
	account, err := s.newAccount(username, email, rawPassword, domain.RoleAdmin, domain.StatusActivated)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, account)
}

func (s *CredentialStore) newAccount(username, email, rawPassword, role string, status domain.AccountStatus) (*domain.Account, error) {
	hash, err := s.hash(rawPassword)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &domain.Account{
		Username:     strings.TrimSpace(username),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.FindByUsername(ctx, strings.TrimSpace(username))
}

// FindByIdentifier treats identifiers containing "@" as emails and anything
// else as a username.
func (s *CredentialStore) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	if strings.Contains(identifier, "@") {
		return s.FindByEmail(ctx, identifier)
	}
	return s.FindByUsername(ctx, identifier)
}

// FindByRememberToken looks an account up by the hash of its remember-me token.
func (s *CredentialStore) FindByRememberToken(ctx context.Context, hash string) (*domain.Account, error) {
	return s.repo.FindByRememberTokenHash(ctx, hash)
}

func (s *CredentialStore) TransitionStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	return s.repo.TransitionStatus(ctx, id, from, to)
}

func (s *CredentialStore) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	if !status.Valid() {
		return oops.Code("STATUS_INVALID").With("status", status).Errorf("unknown account status")
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// UpdatePassword hashes rawPassword and replaces the stored hash.
func (s *CredentialStore) UpdatePassword(ctx context.Context, id, rawPassword string) error {
	hash, err := s.hash(rawPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// SetRememberToken stores the hash of a remember-me token; "" clears it.
func (s *CredentialStore) SetRememberToken(ctx context.Context, id, hash string) error {
	return s.repo.SetRememberToken(ctx, id, hash)
}

// CheckPassword reports whether rawPassword matches account. A nil account is
// compared against a dummy hash and always fails.
func (s *CredentialStore) CheckPassword(account *domain.Account, rawPassword string) bool {
	if account == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(rawPassword))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(rawPassword)) == nil
}

func (s *CredentialStore) hash(rawPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), s.cost)
	if err != nil {
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

func (s *CredentialStore) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), s.cost)
		if err != nil {
			h = []byte{}
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// isNotFound reports absence as a normal branch.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound)
}
