package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

type stubAdminService struct {
	ports.AdminService
	loginFn      func(ctx context.Context, identifier, password string) (string, *domain.Account, error)
	listFn       func(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error)
	activateFn   func(ctx context.Context, id string) error
	deactivateFn func(ctx context.Context, id string) error
}

func (s *stubAdminService) Login(ctx context.Context, identifier, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAdminService) ListAuthors(ctx context.Context, status domain.AccountStatus) ([]*domain.Account, error) {
	return s.listFn(ctx, status)
}

func (s *stubAdminService) ActivateAuthor(ctx context.Context, id string) error {
	return s.activateFn(ctx, id)
}

func (s *stubAdminService) DeactivateAuthor(ctx context.Context, id string) error {
	return s.deactivateFn(ctx, id)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asAdmin(c echo.Context) {
	c.Set(middleware.ContextAdminID, "admin-1")
	c.Set(middleware.ContextRole, domain.RoleAdmin)
}

func TestAdminHandler_Login_Success(t *testing.T) {
	stub := &stubAdminService{
		loginFn: func(_ context.Context, identifier, password string) (string, *domain.Account, error) {
			if identifier != "root" || password != "secret" {
				t.Fatalf("unexpected credentials %q %q", identifier, password)
			}
			return "jwt-token", &domain.Account{ID: "admin-1", Username: "root", Role: domain.RoleAdmin, Status: domain.StatusActivated, CreatedAt: time.Now()}, nil
		},
	}
	h := NewAdminHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/admin/api/login", `{"username":"root","password":"secret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp adminLoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "jwt-token" || resp.Admin.Username != "root" || resp.Admin.Role != domain.RoleAdmin {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not expose password data")
	}
}

func TestAdminHandler_Login_MissingFields(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{})
	c, _ := newJSONContext(http.MethodPost, "/admin/api/login", `{"username":"root"}`)

	err := h.Login(c)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["password"]; !ok {
		t.Fatalf("expected password field error, got %v", verr.Fields)
	}
}

func TestAdminHandler_Login_PropagatesServiceError(t *testing.T) {
	stub := &stubAdminService{
		loginFn: func(context.Context, string, string) (string, *domain.Account, error) {
			return "", nil, domain.ErrForbidden
		},
	}
	h := NewAdminHandler(stub)
	c, _ := newJSONContext(http.MethodPost, "/admin/api/login", `{"username":"alice","password":"secret"}`)

	if err := h.Login(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdminHandler_ListAuthors(t *testing.T) {
	stub := &stubAdminService{
		listFn: func(_ context.Context, status domain.AccountStatus) ([]*domain.Account, error) {
			if status != domain.StatusPending {
				t.Fatalf("unexpected status filter %q", status)
			}
			return []*domain.Account{{ID: "a1", Username: "alice", Role: domain.RoleAuthor, Status: domain.StatusPending}}, nil
		},
	}
	h := NewAdminHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/admin/api/authors?status=Pending", "")
	asAdmin(c)
	if err := h.ListAuthors(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp listResponse[accountResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminHandler_ListAuthors_RequiresClaims(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{})
	c, _ := newJSONContext(http.MethodGet, "/admin/api/authors", "")

	err := h.ListAuthors(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAdminHandler_AuthorTransitions(t *testing.T) {
	var activated, deactivated string
	stub := &stubAdminService{
		activateFn:   func(_ context.Context, id string) error { activated = id; return nil },
		deactivateFn: func(_ context.Context, id string) error { deactivated = id; return nil },
	}
	h := NewAdminHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/admin/api/authors/a1/deactivate", "")
	asAdmin(c)
	c.SetParamNames("id")
	c.SetParamValues("a1")
	if err := h.DeactivateAuthor(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deactivated != "a1" || !strings.Contains(rec.Body.String(), string(domain.StatusDeactivated)) {
		t.Fatalf("deactivate not applied: %q %s", deactivated, rec.Body.String())
	}

	c, rec = newJSONContext(http.MethodPost, "/admin/api/authors/a1/activate", "")
	asAdmin(c)
	c.SetParamNames("id")
	c.SetParamValues("a1")
	if err := h.ActivateAuthor(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if activated != "a1" || !strings.Contains(rec.Body.String(), string(domain.StatusActivated)) {
		t.Fatalf("activate not applied: %q %s", activated, rec.Body.String())
	}
}
