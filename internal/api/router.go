package api

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/enewspaper/newsroom/docs"
	"github.com/enewspaper/newsroom/internal/api/handler"
	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// Deps holds everything the router needs to register routes.
type Deps struct {
	Auth       ports.AuthService
	Admin      ports.AdminService
	Categories ports.CategoryService

	// Health maps dependency names to their readiness probes.
	Health map[string]handler.Pinger

	JWTSecret     string
	SessionSecret string
	Cookies       middleware.CookieConfig
	Logger        zerolog.Logger

	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := handler.NewRenderer()
	if err != nil {
		return nil, err
	}

	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:                 "newsroom",
		Registerer:                d.Registerer,
		DoNotUseRequestPathFor404: true,
	}.ToMiddleware()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(promMW)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", metricsHandler(d.Registerer))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	registerPages(e, d)
	registerAdminAPI(e, d)

	return e, nil
}

// registerPages wires the server-rendered author pages. They share the flash
// cookie session, CSRF protection and the session/remember-me resolver.
func registerPages(e *echo.Echo, d Deps) {
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookies, d.Logger)
	homeHandler := handler.NewHomeHandler(d.Categories, d.Logger)

	flashStore := sessions.NewCookieStore([]byte(d.SessionSecret))
	flashStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   d.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	pages := e.Group("",
		session.Middleware(flashStore),
		echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
			TokenLookup:    "form:_csrf",
			ContextKey:     "csrf",
			CookieName:     "_csrf",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   d.Cookies.Secure,
			CookieSameSite: http.SameSiteLaxMode,
		}),
		middleware.Session(d.Auth, d.Cookies, d.Logger),
	)

	pages.GET("/", homeHandler.Home)

	guest := pages.Group("", middleware.RequireGuest("/"))
	guest.GET("/login", authHandler.ShowLogin)
	guest.POST("/login", authHandler.Login)
	guest.GET("/signup", authHandler.ShowSignup)
	guest.POST("/signup", authHandler.Signup)

	pages.GET("/verify/:token", authHandler.Verify)
	pages.GET("/send_verification", authHandler.ShowSendVerification)
	pages.POST("/send_verification", authHandler.SendVerification)
	pages.GET("/send_reset_pwd_email", authHandler.ShowSendReset)
	pages.POST("/send_reset_pwd_email", authHandler.SendReset)
	pages.GET("/reset_pwd/:token", authHandler.ShowResetPassword)
	pages.POST("/reset_pwd/:token", authHandler.ResetPassword)

	pages.POST("/logout", authHandler.Logout, middleware.RequireAuthenticated("/login"))
}

// registerAdminAPI wires the JSON back office. Everything except login needs
// an admin bearer token.
func registerAdminAPI(e *echo.Echo, d Deps) {
	adminHandler := handler.NewAdminHandler(d.Admin)
	categoryHandler := handler.NewCategoryHandler(d.Categories)

	adminAPI := e.Group("/admin/api")
	adminAPI.POST("/login", adminHandler.Login)

	protected := adminAPI.Group("", middleware.Auth(d.JWTSecret), middleware.RBAC(domain.RoleAdmin))

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.GET("/:id", categoryHandler.Get)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)
	categories.POST("/:id/activate", categoryHandler.Activate)
	categories.POST("/:id/deactivate", categoryHandler.Deactivate)

	authors := protected.Group("/authors")
	authors.GET("", adminHandler.ListAuthors)
	authors.POST("/:id/activate", adminHandler.ActivateAuthor)
	authors.POST("/:id/deactivate", adminHandler.DeactivateAuthor)
}

func metricsHandler(reg prometheus.Registerer) echo.HandlerFunc {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: g})
	}
	return echoprometheus.NewHandler()
}

// requestLogger sends one structured line per request to log.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
