package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/enewspaper/newsroom/internal/api/metrics"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// CategoryHandler serves the back office category endpoints.
type CategoryHandler struct {
	service ports.CategoryService
}

func NewCategoryHandler(service ports.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List handles GET /admin/api/categories.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse[categoryResponse]
// @Failure      401  {object}  errorResponse
// @Router       /admin/api/categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	items := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		items = append(items, toCategoryResponse(cat))
	}
	return c.JSON(http.StatusOK, listResponse[categoryResponse]{Items: items, Total: len(items)})
}

// Get handles GET /admin/api/categories/:id.
//
// @Summary      Get a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  categoryResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/api/categories/{id} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	cat, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategoryResponse(cat))
}

// Create handles POST /admin/api/categories.
//
// @Summary      Add a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      categoryRequest  true  "Category"
// @Success      201   {object}  categoryResponse
// @Failure      400   {object}  errorResponse
// @Router       /admin/api/categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cat, err := h.service.Create(c.Request().Context(), ports.CategoryInput{Name: req.Name, DisplayOrder: req.DisplayOrder})
	if err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("category", "create").Inc()
	return c.JSON(http.StatusCreated, toCategoryResponse(cat))
}

// Update handles PUT /admin/api/categories/:id.
//
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Category ID"
// @Param        body  body      categoryRequest  true  "Category"
// @Success      200   {object}  categoryResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/api/categories/{id} [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cat, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.CategoryInput{Name: req.Name, DisplayOrder: req.DisplayOrder})
	if err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("category", "update").Inc()
	return c.JSON(http.StatusOK, toCategoryResponse(cat))
}

// Delete handles DELETE /admin/api/categories/:id.
//
// @Summary      Delete a category
// @Tags         categories
// @Security     BearerAuth
// @Param        id   path  string  true  "Category ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("category", "delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Activate handles POST /admin/api/categories/:id/activate.
//
// @Summary      Activate a deactivated category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /admin/api/categories/{id}/activate [post]
func (h *CategoryHandler) Activate(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Activate(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("category", "activate").Inc()
	return c.JSON(http.StatusOK, statusResponse{ID: id, Status: string(domain.StatusActivated)})
}

// Deactivate handles POST /admin/api/categories/:id/deactivate.
//
// @Summary      Deactivate a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /admin/api/categories/{id}/deactivate [post]
func (h *CategoryHandler) Deactivate(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Deactivate(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("category", "deactivate").Inc()
	return c.JSON(http.StatusOK, statusResponse{ID: id, Status: string(domain.StatusDeactivated)})
}
