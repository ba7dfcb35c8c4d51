package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

const rawTokenBytes = 32

// TokenPolicy holds the lifetime of each token purpose.
type TokenPolicy struct {
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// TokenService issues and checks single-use emailed tokens.
type TokenService struct {
	repo   ports.AccountRepository
	policy TokenPolicy
	now    func() time.Time
}

func NewTokenService(repo ports.AccountRepository, policy TokenPolicy) *TokenService {
	if policy.VerifyTTL <= 0 {
		policy.VerifyTTL = 24 * time.Hour
	}
	if policy.ResetTTL <= 0 {
		policy.ResetTTL = time.Hour
	}
	return &TokenService{
		repo:   repo,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TokenService) ttl(purpose domain.TokenPurpose) time.Duration {
	if purpose == domain.PurposeResetPassword {
		return s.policy.ResetTTL
	}
	return s.policy.VerifyTTL
}

// Generate creates a raw token and its stored counterpart without persisting.
func (s *TokenService) Generate(purpose domain.TokenPurpose) (string, domain.Token, error) {
	if !purpose.Valid() {
		return "", domain.Token{}, oops.Code("TOKEN_PURPOSE_INVALID").With("purpose", purpose).Errorf("unknown token purpose")
	}
	raw, err := newRawToken()
	if err != nil {
		return "", domain.Token{}, err
	}
	now := s.now()
	return raw, domain.Token{
		Hash:      HashToken(raw),
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl(purpose)),
		CreatedAt: now,
	}, nil
}

// Issue generates a token and stores it in the account's slot for purpose,
// replacing any earlier token of that purpose.
func (s *TokenService) Issue(ctx context.Context, accountID string, purpose domain.TokenPurpose) (string, domain.Token, error) {
	raw, tok, err := s.Generate(purpose)
	if err != nil {
		return "", domain.Token{}, err
	}
	if err := s.repo.SetToken(ctx, accountID, tok); err != nil {
		return "", domain.Token{}, oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "store token").
			With("purpose", purpose).
			Wrap(err)
	}
	return raw, tok, nil
}

// Validate returns the account owning raw for purpose. Unknown, malformed,
// expired, consumed and wrong-purpose tokens all yield domain.ErrInvalidToken.
func (s *TokenService) Validate(ctx context.Context, purpose domain.TokenPurpose, raw string) (*domain.Account, error) {
	if !wellFormedToken(raw) {
		return nil, domain.ErrInvalidToken
	}
	hash := HashToken(raw)

	account, err := s.repo.FindByTokenHash(ctx, purpose, hash)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, oops.Code("TOKEN_LOOKUP_FAILED").With("purpose", purpose).Wrap(err)
	}

	tok, ok := account.Token(purpose)
	if !ok || subtle.ConstantTimeCompare([]byte(tok.Hash), []byte(hash)) != 1 {
		return nil, domain.ErrInvalidToken
	}
	if !tok.UsableAt(s.now()) {
		return nil, domain.ErrInvalidToken
	}
	return account, nil
}

// Consume validates raw and marks it consumed. Only one caller can consume a
// given token; the others get domain.ErrInvalidToken.
func (s *TokenService) Consume(ctx context.Context, purpose domain.TokenPurpose, raw string) (*domain.Account, error) {
	account, err := s.Validate(ctx, purpose, raw)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hash := HashToken(raw)
	ok, err := s.repo.ConsumeToken(ctx, account.ID, purpose, hash, now)
	if err != nil {
		return nil, oops.Code("TOKEN_CONSUME_FAILED").With("purpose", purpose).Wrap(err)
	}
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	tok := account.Tokens[purpose]
	tok.ConsumedAt = &now
	account.Tokens[purpose] = tok
	return account, nil
}

// HashToken returns the hex SHA-256 of a raw token, the only form stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newRawToken() (string, error) {
	b := make([]byte, rawTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_RANDOM_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

func wellFormedToken(raw string) bool {
	if len(raw) != rawTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}
