package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/enewspaper/newsroom/internal/api/handler"
	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

type stubAuth struct {
	ports.AuthService
	loginCalls int
}

func (s *stubAuth) ResumeSession(context.Context, string) (*domain.Account, error) {
	return nil, domain.ErrSessionNotFound
}

func (s *stubAuth) ResumeFromRememberToken(context.Context, string) (*ports.LoginResult, error) {
	return nil, domain.ErrInvalidToken
}

func (s *stubAuth) Login(context.Context, ports.LoginInput) (*ports.LoginResult, error) {
	s.loginCalls++
	return nil, domain.ErrInvalidCredentials
}

type stubCategories struct {
	ports.CategoryService
}

func (stubCategories) ListActive(context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{ID: "c1", Name: "Politics", Status: domain.StatusActivated}}, nil
}

func newTestRouter(t *testing.T, auth *stubAuth) *echo.Echo {
	t.Helper()
	e, err := NewRouter(Deps{
		Auth:          auth,
		Categories:    stubCategories{},
		Health:        map[string]handler.Pinger{},
		JWTSecret:     "test-jwt-secret-0123456789abcdef0123",
		SessionSecret: "test-session-secret-0123456789abcdef",
		Cookies:       middleware.CookieConfig{SessionTTL: time.Hour, RememberTTL: time.Hour},
		Logger:        zerolog.Nop(),
		Registerer:    prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return e
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter(t, &stubAuth{})

	rec := do(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_HomeShowsMenu(t *testing.T) {
	e := newTestRouter(t, &stubAuth{})

	rec := do(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Politics") {
		t.Fatalf("expected home page with menu, got %d", rec.Code)
	}
}

func TestRouter_AdminAPIRequiresToken(t *testing.T) {
	e := newTestRouter(t, &stubAuth{})

	rec := do(e, httptest.NewRequest(http.MethodGet, "/admin/api/categories", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected JSON error envelope, got %s", rec.Body.String())
	}
}

func TestRouter_LoginFormNeedsCSRFToken(t *testing.T) {
	auth := &stubAuth{}
	e := newTestRouter(t, auth)

	form := url.Values{"username": {"alice"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := do(e, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without csrf token, got %d", rec.Code)
	}
	if auth.loginCalls != 0 {
		t.Fatalf("login must not run without a csrf token")
	}
}

func TestRouter_LoginWithCSRFToken(t *testing.T) {
	auth := &stubAuth{}
	e := newTestRouter(t, auth)

	// The login page issues the token cookie.
	rec := do(e, httptest.NewRequest(http.MethodGet, "/login", nil))
	var csrf *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "_csrf" {
			csrf = ck
		}
	}
	if csrf == nil || csrf.Value == "" {
		t.Fatalf("expected csrf cookie from login page")
	}
	if !strings.Contains(rec.Body.String(), csrf.Value) {
		t.Fatalf("expected csrf token embedded in the form")
	}

	form := url.Values{"_csrf": {csrf.Value}, "username": {"alice"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(csrf)

	rec = do(e, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", rec.Code)
	}
	if auth.loginCalls != 1 {
		t.Fatalf("expected one login attempt, got %d", auth.loginCalls)
	}
}
