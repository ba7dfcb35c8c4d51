package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/enewspaper/newsroom/internal/core/domain"
)

func TestAccountDocRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	consumed := now.Add(time.Minute)
	in := &domain.Account{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     domain.RoleAuthor,
		Status:   domain.StatusPending,
		Tokens: map[domain.TokenPurpose]domain.Token{
			domain.PurposeVerifyEmail: {Hash: "h1", Purpose: domain.PurposeVerifyEmail, ExpiresAt: now.Add(time.Hour), ConsumedAt: &consumed, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	out := toAccountDoc(in).toDomain()
	tok, ok := out.Token(domain.PurposeVerifyEmail)
	if !ok {
		t.Fatalf("expected verify token to survive mapping")
	}
	if tok.Purpose != domain.PurposeVerifyEmail || tok.Hash != "h1" || !tok.IsConsumed() {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if out.Status != domain.StatusPending || out.Email != in.Email {
		t.Fatalf("unexpected account: %+v", out)
	}
}

func TestTokenField(t *testing.T) {
	if got := tokenField(domain.PurposeResetPassword, "hash"); got != "tokens.reset_password.hash" {
		t.Fatalf("unexpected field path: %s", got)
	}
}

func TestDuplicateAccountField(t *testing.T) {
	emailDup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error collection: newsroom.authors index: uniq_email dup key"}}}
	userDup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error collection: newsroom.authors index: uniq_username dup key"}}}

	if err := duplicateAccountField(emailDup); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := duplicateAccountField(userDup); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if !mongo.IsDuplicateKeyError(userDup) {
		t.Fatalf("expected driver to classify as duplicate key")
	}
}

func TestObjectID_Malformed(t *testing.T) {
	if _, err := objectID("not-an-id", domain.ErrAccountNotFound); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
