package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	accounts map[string]*domain.Account // keyed by ID
	nextID   int
	findErr  error
	setCalls int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Tokens != nil {
		clone.Tokens = make(map[domain.TokenPurpose]domain.Token, len(a.Tokens))
		for k, v := range a.Tokens {
			clone.Tokens[k] = v
		}
	}
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return nil, domain.ErrDuplicateUsername
		}
		if existing.Email == a.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	c := cloneAccount(a)
	c.ID = "acc_" + string(rune('0'+r.nextID))
	r.accounts[c.ID] = c
	return cloneAccount(c), nil
}

func (r *stubAccountRepo) find(match func(*domain.Account) bool) (*domain.Account, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id })
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Username == username })
}

func (r *stubAccountRepo) FindByTokenHash(_ context.Context, purpose domain.TokenPurpose, hash string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool {
		t, ok := a.Tokens[purpose]
		return ok && t.Hash == hash
	})
}

func (r *stubAccountRepo) FindByRememberTokenHash(_ context.Context, hash string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return hash != "" && a.RememberTokenHash == hash })
}

func (r *stubAccountRepo) List(_ context.Context, f ports.AccountFilter) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range r.accounts {
		if (f.Role == "" || a.Role == f.Role) && (f.Status == "" || a.Status == f.Status) {
			out = append(out, cloneAccount(a))
		}
	}
	return out, nil
}

func (r *stubAccountRepo) SetToken(_ context.Context, id string, t domain.Token) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Tokens == nil {
		a.Tokens = make(map[domain.TokenPurpose]domain.Token)
	}
	a.Tokens[t.Purpose] = t
	r.setCalls++
	return nil
}

func (r *stubAccountRepo) ConsumeToken(_ context.Context, id string, purpose domain.TokenPurpose, hash string, at time.Time) (bool, error) {
	a, ok := r.accounts[id]
	if !ok {
		return false, nil
	}
	t, ok := a.Tokens[purpose]
	if !ok || t.Hash != hash || t.ConsumedAt != nil {
		return false, nil
	}
	t.ConsumedAt = &at
	a.Tokens[purpose] = t
	return true, nil
}

func (r *stubAccountRepo) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (r *stubAccountRepo) TransitionStatus(_ context.Context, id string, from, to domain.AccountStatus) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Status != from {
		return domain.ErrInvalidTransition
	}
	a.Status = to
	return nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id, hash string) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *stubAccountRepo) SetRememberToken(_ context.Context, id, hash string) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.RememberTokenHash = hash
	return nil
}

type stubSessions struct {
	sessions map[string]string
	n        int
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]string)}
}

func (s *stubSessions) Create(_ context.Context, accountID string, _ time.Duration) (string, error) {
	s.n++
	id := "sid_" + string(rune('a'+s.n))
	s.sessions[id] = accountID
	return id, nil
}

func (s *stubSessions) Get(_ context.Context, id string) (string, error) {
	acc, ok := s.sessions[id]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return acc, nil
}

func (s *stubSessions) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type sentMail struct {
	kind  string
	email string
	token string
}

type stubMailer struct {
	sent   []sentMail
	err    error
	reject bool
}

func (m *stubMailer) send(kind, email, token string) (ports.Delivery, error) {
	if m.err != nil {
		return ports.Delivery{Rejected: []string{email}}, m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, email: email, token: token})
	if m.reject {
		return ports.Delivery{Rejected: []string{email}}, nil
	}
	return ports.Delivery{Accepted: []string{email}}, nil
}

func (m *stubMailer) SendVerification(_ context.Context, email, token string) (ports.Delivery, error) {
	return m.send("verify", email, token)
}

func (m *stubMailer) SendPasswordReset(_ context.Context, email, token string) (ports.Delivery, error) {
	return m.send("reset", email, token)
}

func (m *stubMailer) last(t *testing.T) sentMail {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatalf("expected a mail to be sent")
	}
	return m.sent[len(m.sent)-1]
}

type authFixture struct {
	repo     *stubAccountRepo
	sessions *stubSessions
	mailer   *stubMailer
	tokens   *TokenService
	svc      *AuthService
}

func newAuthFixture() *authFixture {
	repo := newStubAccountRepo()
	tokens := NewTokenService(repo, TokenPolicy{VerifyTTL: 24 * time.Hour, ResetTTL: time.Hour})
	creds := NewCredentialStore(repo, tokens, bcrypt.MinCost)
	sessions := newStubSessions()
	mailer := &stubMailer{}
	return &authFixture{
		repo:     repo,
		sessions: sessions,
		mailer:   mailer,
		tokens:   tokens,
		svc:      NewAuthService(creds, tokens, sessions, mailer, time.Hour, zerolog.Nop()),
	}
}

func signupInput(username, email string) ports.SignupInput {
	return ports.SignupInput{Username: username, Email: email, Password: "s3cret", ConfirmPassword: "s3cret"}
}

// signupAndVerify leaves an Activated account behind.
func (f *authFixture) signupAndVerify(t *testing.T, username, email string) *domain.Account {
	t.Helper()
	if _, err := f.svc.Signup(context.Background(), signupInput(username, email)); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	acc, err := f.svc.VerifyAccount(context.Background(), f.mailer.last(t).token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	return acc
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return verr.Fields
}

// ---------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------

func TestAuthService_Signup_Success(t *testing.T) {
	f := newAuthFixture()

	acc, err := f.svc.Signup(context.Background(), signupInput("alice", " Alice@Example.com "))
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if acc.Status != domain.StatusPending {
		t.Fatalf("expected Pending, got %s", acc.Status)
	}
	if acc.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", acc.Email)
	}
	if acc.PasswordHash == "s3cret" {
		t.Fatalf("expected password to be hashed")
	}

	stored := f.repo.accounts[acc.ID]
	if len(stored.Tokens) != 1 {
		t.Fatalf("expected exactly one token, got %d", len(stored.Tokens))
	}
	tok, ok := stored.Token(domain.PurposeVerifyEmail)
	if !ok || tok.IsConsumed() {
		t.Fatalf("expected one unconsumed verify token, got %+v", stored.Tokens)
	}

	mail := f.mailer.last(t)
	if mail.kind != "verify" || mail.email != "alice@example.com" {
		t.Fatalf("unexpected mail: %+v", mail)
	}
	if tok.Hash != HashToken(mail.token) || tok.Hash == mail.token {
		t.Fatalf("expected only the token hash to be stored")
	}
}

func TestAuthService_Signup_ConfirmMismatch(t *testing.T) {
	f := newAuthFixture()

	in := signupInput("alice", "alice@example.com")
	in.ConfirmPassword = "other"
	_, err := f.svc.Signup(context.Background(), in)

	fields := fieldErrors(t, err)
	if fields["confirm_password"] != msgPasswordMismatch {
		t.Fatalf("expected confirm_password error, got %v", fields)
	}
	if len(f.repo.accounts) != 0 {
		t.Fatalf("expected no account to be created")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("expected no mail")
	}
}

func TestAuthService_Signup_FieldValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    ports.SignupInput
		field string
		msg   string
	}{
		{"username chars", ports.SignupInput{Username: "al ice", Email: "a@b.co", Password: "pass", ConfirmPassword: "pass"}, "username", msgUsernameChars},
		{"username short", ports.SignupInput{Username: "al", Email: "a@b.co", Password: "pass", ConfirmPassword: "pass"}, "username", msgUsernameRange},
		{"username long", ports.SignupInput{Username: strings.Repeat("a", 31), Email: "a@b.co", Password: "pass", ConfirmPassword: "pass"}, "username", msgUsernameRange},
		{"bad email", ports.SignupInput{Username: "alice", Email: "nope", Password: "pass", ConfirmPassword: "pass"}, "email", msgEmailInvalid},
		{"short password", ports.SignupInput{Username: "alice", Email: "a@b.co", Password: "abc", ConfirmPassword: "abc"}, "password", msgPasswordRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			_, err := f.svc.Signup(context.Background(), tt.in)
			fields := fieldErrors(t, err)
			if fields[tt.field] != tt.msg {
				t.Fatalf("expected %s=%q, got %v", tt.field, tt.msg, fields)
			}
			if len(f.repo.accounts) != 0 {
				t.Fatalf("store must be untouched")
			}
		})
	}
}

func TestAuthService_Signup_PasswordOverBcryptLimit(t *testing.T) {
	f := newAuthFixture()

	// 20 characters but 80 bytes.
	pw := strings.Repeat("\U0001F600", 20)
	in := ports.SignupInput{Username: "alice", Email: "alice@example.com", Password: pw, ConfirmPassword: pw}
	_, err := f.svc.Signup(context.Background(), in)

	if fields := fieldErrors(t, err); fields["password"] != msgPasswordBytes {
		t.Fatalf("expected password error, got %v", fields)
	}
	if len(f.repo.accounts) != 0 || len(f.mailer.sent) != 0 {
		t.Fatalf("store and mailer must be untouched")
	}

	// 30 characters within 72 bytes still hash.
	pw = strings.Repeat("\u00e9", 30)
	in.Password, in.ConfirmPassword = pw, pw
	if _, err := f.svc.Signup(context.Background(), in); err != nil {
		t.Fatalf("expected multi-byte password within the limit to succeed, got %v", err)
	}
}

func TestAuthService_Signup_Duplicates(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Signup(context.Background(), signupInput("alice", "alice@example.com")); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	_, err := f.svc.Signup(context.Background(), signupInput("alice", "ALICE@example.com"))
	fields := fieldErrors(t, err)
	if fields["username"] != msgUsernameTaken || fields["email"] != msgEmailTaken {
		t.Fatalf("expected both duplicate messages, got %v", fields)
	}
	if len(f.repo.accounts) != 1 {
		t.Fatalf("expected one account, got %d", len(f.repo.accounts))
	}
}

func TestAuthService_Signup_MailFailureKeepsAccount(t *testing.T) {
	f := newAuthFixture()
	f.mailer.err = errors.New("smtp down")

	acc, err := f.svc.Signup(context.Background(), signupInput("alice", "alice@example.com"))
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}
	if acc == nil || f.repo.accounts[acc.ID] == nil {
		t.Fatalf("expected the pending account to remain")
	}
}

// ---------------------------------------------------------------------------
// Verification
// ---------------------------------------------------------------------------

func TestAuthService_VerifyTwice(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Signup(context.Background(), signupInput("alice", "alice@example.com")); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	raw := f.mailer.last(t).token

	acc, err := f.svc.VerifyAccount(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if acc.Status != domain.StatusActivated {
		t.Fatalf("expected Activated, got %s", acc.Status)
	}

	if _, err := f.svc.VerifyAccount(context.Background(), raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on replay, got %v", err)
	}
	if f.repo.accounts[acc.ID].Status != domain.StatusActivated {
		t.Fatalf("status must stay Activated")
	}
}

func TestAuthService_Verify_RejectsResetToken(t *testing.T) {
	f := newAuthFixture()
	acc := f.signupAndVerify(t, "alice", "alice@example.com")
	f.repo.accounts[acc.ID].Status = domain.StatusPending

	raw, _, err := f.tokens.Issue(context.Background(), acc.ID, domain.PurposeResetPassword)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := f.svc.VerifyAccount(context.Background(), raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_ResendVerification(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	acc, err := f.svc.Signup(ctx, signupInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	out, err := f.svc.ResendVerification(ctx, "alice@example.com")
	if err != nil || out != ports.ResendAlreadyPending {
		t.Fatalf("expected ResendAlreadyPending, got %v %v", out, err)
	}

	// Expire the token and resend.
	stored := f.repo.accounts[acc.ID]
	tok := stored.Tokens[domain.PurposeVerifyEmail]
	tok.ExpiresAt = time.Now().Add(-time.Minute)
	stored.Tokens[domain.PurposeVerifyEmail] = tok

	out, err = f.svc.ResendVerification(ctx, "alice@example.com")
	if err != nil || out != ports.ResendSent {
		t.Fatalf("expected ResendSent, got %v %v", out, err)
	}
	if len(f.mailer.sent) != 2 {
		t.Fatalf("expected a second mail, got %d", len(f.mailer.sent))
	}
	if _, err := f.svc.VerifyAccount(ctx, f.mailer.last(t).token); err != nil {
		t.Fatalf("new token should verify: %v", err)
	}

	out, err = f.svc.ResendVerification(ctx, "alice@example.com")
	if err != nil || out != ports.ResendAlreadyActivated {
		t.Fatalf("expected ResendAlreadyActivated, got %v %v", out, err)
	}
}

func TestAuthService_ResendVerification_UnknownEmail(t *testing.T) {
	f := newAuthFixture()
	out, err := f.svc.ResendVerification(context.Background(), "ghost@example.com")
	if err != nil || out != ports.ResendSent {
		t.Fatalf("expected ResendSent, got %v %v", out, err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("expected no mail for unknown email")
	}
}

// ---------------------------------------------------------------------------
// Login / sessions
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	acc := f.signupAndVerify(t, "carol", "carol@example.com")

	for _, ident := range []string{"carol", "Carol@Example.com"} {
		res, err := f.svc.Login(context.Background(), ports.LoginInput{Identifier: ident, Password: "s3cret"})
		if err != nil {
			t.Fatalf("login with %q failed: %v", ident, err)
		}
		if res.Account.ID != acc.ID || res.SessionID == "" {
			t.Fatalf("unexpected result: %+v", res)
		}
		if res.RememberToken != "" {
			t.Fatalf("remember token must be empty without remember-me")
		}
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture()
	f.signupAndVerify(t, "dave", "dave@example.com")

	_, wrongPass := f.svc.Login(context.Background(), ports.LoginInput{Identifier: "dave", Password: "badpass"})
	_, unknown := f.svc.Login(context.Background(), ports.LoginInput{Identifier: "ghost", Password: "badpass"})

	if wrongPass != domain.ErrInvalidCredentials || unknown != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials twice, got %v / %v", wrongPass, unknown)
	}
}

func TestAuthService_Login_PendingAccount(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Signup(context.Background(), signupInput("erin", "erin@example.com")); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	_, err := f.svc.Login(context.Background(), ports.LoginInput{Identifier: "erin", Password: "s3cret"})
	if err != domain.ErrAccountInactive {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAuthService_RememberMe_Rotates(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	acc := f.signupAndVerify(t, "frank", "frank@example.com")

	first, err := f.svc.Login(ctx, ports.LoginInput{Identifier: "frank", Password: "s3cret", RememberMe: true})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if first.RememberToken == "" {
		t.Fatalf("expected remember token")
	}
	if f.repo.accounts[acc.ID].RememberTokenHash != HashToken(first.RememberToken) {
		t.Fatalf("expected stored hash of the remember token")
	}

	second, err := f.svc.ResumeFromRememberToken(ctx, first.RememberToken)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if second.RememberToken == first.RememberToken {
		t.Fatalf("expected rotated remember token")
	}
	if _, err := f.svc.ResumeFromRememberToken(ctx, first.RememberToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("old remember token must be rejected, got %v", err)
	}

	if err := f.svc.Logout(ctx, ports.LogoutInput{SessionID: second.SessionID, AccountID: acc.ID}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.svc.ResumeFromRememberToken(ctx, second.RememberToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("remember token must be revoked by logout, got %v", err)
	}
	if _, err := f.svc.ResumeSession(ctx, second.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("session must be gone after logout, got %v", err)
	}
}

func TestAuthService_Logout_ClearsRememberToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	acc := f.signupAndVerify(t, "lena", "lena@example.com")

	res, err := f.svc.Login(ctx, ports.LoginInput{Identifier: "lena", Password: "s3cret", RememberMe: true})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if f.repo.accounts[acc.ID].RememberTokenHash == "" {
		t.Fatalf("expected a stored remember token hash")
	}

	if err := f.svc.Logout(ctx, ports.LogoutInput{SessionID: res.SessionID, AccountID: acc.ID}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if h := f.repo.accounts[acc.ID].RememberTokenHash; h != "" {
		t.Fatalf("expected remember token hash to be cleared, got %q", h)
	}
	if _, ok := f.sessions.sessions[res.SessionID]; ok {
		t.Fatalf("expected session to be deleted")
	}
	if _, err := f.svc.ResumeFromRememberToken(ctx, res.RememberToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for the old remember token, got %v", err)
	}
}

func TestAuthService_Logout_Anonymous(t *testing.T) {
	f := newAuthFixture()

	if err := f.svc.Logout(context.Background(), ports.LogoutInput{}); err != nil {
		t.Fatalf("logout without a session must be a no-op, got %v", err)
	}
}

func TestAuthService_ResumeSession_DeactivatedAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	acc := f.signupAndVerify(t, "gina", "gina@example.com")

	res, err := f.svc.Login(ctx, ports.LoginInput{Identifier: "gina", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got, err := f.svc.ResumeSession(ctx, res.SessionID); err != nil || got.ID != acc.ID {
		t.Fatalf("expected session to resolve, got %v %v", got, err)
	}

	f.repo.accounts[acc.ID].Status = domain.StatusDeactivated
	if _, err := f.svc.ResumeSession(ctx, res.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, ok := f.sessions.sessions[res.SessionID]; ok {
		t.Fatalf("expected stale session to be dropped")
	}
}

// ---------------------------------------------------------------------------
// Password reset
// ---------------------------------------------------------------------------

func TestAuthService_RequestPasswordReset_Twice(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	f.signupAndVerify(t, "hank", "hank@example.com")
	sentBefore := len(f.mailer.sent)
	setBefore := f.repo.setCalls

	out, err := f.svc.RequestPasswordReset(ctx, "hank@example.com")
	if err != nil || out != ports.ResetSent {
		t.Fatalf("expected ResetSent, got %v %v", out, err)
	}
	out, err = f.svc.RequestPasswordReset(ctx, "hank@example.com")
	if err != nil || out != ports.ResetAlreadySent {
		t.Fatalf("expected ResetAlreadySent, got %v %v", out, err)
	}
	if f.repo.setCalls-setBefore != 1 || len(f.mailer.sent)-sentBefore != 1 {
		t.Fatalf("expected exactly one token issued and mailed")
	}
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture()
	out, err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil || out != ports.ResetSent {
		t.Fatalf("expected ResetSent, got %v %v", out, err)
	}
	if len(f.mailer.sent) != 0 || f.repo.setCalls != 0 {
		t.Fatalf("expected no side effects")
	}
}

func TestAuthService_CompletePasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	acc := f.signupAndVerify(t, "ivy", "ivy@example.com")
	if _, err := f.svc.Login(ctx, ports.LoginInput{Identifier: "ivy", Password: "s3cret", RememberMe: true}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := f.svc.RequestPasswordReset(ctx, "ivy@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw := f.mailer.last(t).token

	if err := f.svc.CheckResetToken(ctx, raw); err != nil {
		t.Fatalf("token should be valid: %v", err)
	}

	err := f.svc.CompletePasswordReset(ctx, ports.CompleteResetInput{Token: raw, Password: "newpass", ConfirmPassword: "nope"})
	if fieldErrors(t, err)["confirm_password"] != msgPasswordMismatch {
		t.Fatalf("expected mismatch error")
	}

	if err := f.svc.CompletePasswordReset(ctx, ports.CompleteResetInput{Token: raw, Password: "newpass", ConfirmPassword: "newpass"}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if f.repo.accounts[acc.ID].RememberTokenHash != "" {
		t.Fatalf("expected remember token to be cleared")
	}
	if _, err := f.svc.Login(ctx, ports.LoginInput{Identifier: "ivy", Password: "newpass"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if err := f.svc.CompletePasswordReset(ctx, ports.CompleteResetInput{Token: raw, Password: "again1", ConfirmPassword: "again1"}); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestAuthService_CompletePasswordReset_PasswordOverBcryptLimit(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	f.signupAndVerify(t, "jack", "jack@example.com")
	if _, err := f.svc.RequestPasswordReset(ctx, "jack@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw := f.mailer.last(t).token

	pw := strings.Repeat("\U0001F600", 20)
	err := f.svc.CompletePasswordReset(ctx, ports.CompleteResetInput{Token: raw, Password: pw, ConfirmPassword: pw})
	if fields := fieldErrors(t, err); fields["password"] != msgPasswordBytes {
		t.Fatalf("expected password error, got %v", fields)
	}

	// The link survives the rejected form.
	if err := f.svc.CheckResetToken(ctx, raw); err != nil {
		t.Fatalf("expected reset token to remain usable, got %v", err)
	}
	if err := f.svc.CompletePasswordReset(ctx, ports.CompleteResetInput{Token: raw, Password: "newpass", ConfirmPassword: "newpass"}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if _, err := f.svc.Login(ctx, ports.LoginInput{Identifier: "jack", Password: "newpass"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestAuthService_CompletePasswordReset_InvalidTokenFirst(t *testing.T) {
	f := newAuthFixture()
	err := f.svc.CompletePasswordReset(context.Background(), ports.CompleteResetInput{Token: "bogus", Password: "x", ConfirmPassword: "y"})
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken before field validation, got %v", err)
	}
}
