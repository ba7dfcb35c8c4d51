package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/enewspaper/newsroom/internal/core/ports"
)

type HomeHandler struct {
	categories ports.CategoryService
	log        zerolog.Logger
}

func NewHomeHandler(categories ports.CategoryService, log zerolog.Logger) *HomeHandler {
	return &HomeHandler{categories: categories, log: log}
}

// Home renders the front page with the active categories menu.
func (h *HomeHandler) Home(c echo.Context) error {
	page := newPage(c, h.log, "Home")

	menu, err := h.categories.ListActive(c.Request().Context())
	if err != nil {
		// The page still renders without a menu.
		h.log.Error().Err(err).Msg("load category menu")
	}
	page.Categories = menu
	return c.Render(http.StatusOK, pageHome, page)
}
