package handler

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by the renderer.
const (
	pageHome             = "home.html"
	pageLogin            = "login.html"
	pageSignup           = "signup.html"
	pageVerify           = "verify.html"
	pageSendVerification = "send_verification.html"
	pageSendReset        = "send_reset.html"
	pageResetPassword    = "reset_password.html"
)

// Renderer renders pages wrapped in the shared layout. It satisfies echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with layout.html.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("TEMPLATE_LOAD_FAILED").Wrap(err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		t, err := template.ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, oops.Code("TEMPLATE_LOAD_FAILED").With("page", base).Wrap(err)
		}
		r.pages[base] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return oops.Code("TEMPLATE_NOT_FOUND").With("page", name).Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// pageData is the view model shared by all pages.
type pageData struct {
	Title      string
	Account    *domain.Account
	CSRF       string
	Flashes    []Flash
	Message    string
	Success    bool
	Errors     map[string]string
	Form       map[string]string
	Token      string
	Categories []*domain.Category
}

// newPage fills the request-scoped parts of pageData.
func newPage(c echo.Context, log zerolog.Logger, title string) *pageData {
	p := &pageData{
		Title:   title,
		Flashes: popFlashes(c, log),
		Errors:  map[string]string{},
		Form:    map[string]string{},
	}
	p.Account, _ = middleware.CurrentAccount(c)
	p.CSRF, _ = c.Get(csrfContextKey).(string)
	return p
}
