package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/domain"
)

// ctxAdmin extracts the admin claims injected by the Auth middleware and
// fails fast when they are missing. RBAC already rejected other roles.
func ctxAdmin(c echo.Context) (adminID string, err error) {
	role, _ := c.Get(middleware.ContextRole).(string)
	if role == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if role != domain.RoleAdmin {
		return "", domain.ErrForbidden
	}

	adminID, _ = c.Get(middleware.ContextAdminID).(string)
	if adminID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
	}
	return adminID, nil
}
