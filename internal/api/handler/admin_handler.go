package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/enewspaper/newsroom/internal/api/metrics"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// AdminHandler serves administrator login and author management.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Login handles POST /admin/api/login.
//
// @Summary      Administrator login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      adminLoginRequest  true  "Administrator credentials"
// @Success      200   {object}  adminLoginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /admin/api/login [post]
func (h *AdminHandler) Login(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, account, err := h.admin.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminLoginResponse{Token: token, Admin: toAccountResponse(account)})
}

// ListAuthors handles GET /admin/api/authors.
//
// @Summary      List author accounts
// @Tags         authors
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Pending, Activated or Deactivated"
// @Success      200     {object}  listResponse[accountResponse]
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /admin/api/authors [get]
func (h *AdminHandler) ListAuthors(c echo.Context) error {
	if _, err := ctxAdmin(c); err != nil {
		return err
	}

	authors, err := h.admin.ListAuthors(c.Request().Context(), domain.AccountStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}

	items := make([]accountResponse, 0, len(authors))
	for _, a := range authors {
		items = append(items, toAccountResponse(a))
	}
	return c.JSON(http.StatusOK, listResponse[accountResponse]{Items: items, Total: len(items)})
}

// ActivateAuthor handles POST /admin/api/authors/:id/activate.
//
// @Summary      Reactivate a deactivated author
// @Tags         authors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Author ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /admin/api/authors/{id}/activate [post]
func (h *AdminHandler) ActivateAuthor(c echo.Context) error {
	if _, err := ctxAdmin(c); err != nil {
		return err
	}
	id := c.Param("id")
	if err := h.admin.ActivateAuthor(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("author", "activate").Inc()
	return c.JSON(http.StatusOK, statusResponse{ID: id, Status: string(domain.StatusActivated)})
}

// DeactivateAuthor handles POST /admin/api/authors/:id/deactivate.
//
// @Summary      Deactivate an author
// @Tags         authors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Author ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /admin/api/authors/{id}/deactivate [post]
func (h *AdminHandler) DeactivateAuthor(c echo.Context) error {
	if _, err := ctxAdmin(c); err != nil {
		return err
	}
	id := c.Param("id")
	if err := h.admin.DeactivateAuthor(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("author", "deactivate").Inc()
	return c.JSON(http.StatusOK, statusResponse{ID: id, Status: string(domain.StatusDeactivated)})
}
