package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/enewspaper/newsroom/internal/api/metrics"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// Context keys populated by Session.
const (
	ContextAccount   = "account"
	ContextSessionID = "session_id"
)

// Session resolves the signed-in author from the session cookie, falling back
// to the remember-me cookie. Requests without valid cookies pass through
// anonymously.
func Session(auth ports.AuthService, cookies CookieConfig, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if sid := cookieValue(c, SessionCookie); sid != "" {
				account, err := auth.ResumeSession(ctx, sid)
				switch {
				case err == nil:
					setAccount(c, account, sid)
					return next(c)
				case !errors.Is(err, domain.ErrSessionNotFound):
					log.Error().Err(err).Msg("resume session")
					return next(c)
				}
			}

			raw := cookieValue(c, RememberCookie)
			if raw == "" {
				return next(c)
			}

			res, err := auth.ResumeFromRememberToken(ctx, raw)
			switch {
			case err == nil:
				metrics.LoginsTotal.WithLabelValues("remember_me", "success").Inc()
				SetLoginCookies(c, cookies, res)
				setAccount(c, res.Account, res.SessionID)
			case errors.Is(err, domain.ErrInvalidToken):
				metrics.LoginsTotal.WithLabelValues("remember_me", "invalid_credentials").Inc()
				ClearLoginCookies(c, cookies)
			default:
				metrics.LoginsTotal.WithLabelValues("remember_me", "error").Inc()
				log.Error().Err(err).Msg("remember-me login")
			}
			return next(c)
		}
	}
}

func setAccount(c echo.Context, account *domain.Account, sessionID string) {
	c.Set(ContextAccount, account)
	c.Set(ContextSessionID, sessionID)
}

// CurrentAccount returns the author resolved by Session, if any.
func CurrentAccount(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(ContextAccount).(*domain.Account)
	return account, ok && account != nil
}

// CurrentSessionID returns the session id resolved by Session.
func CurrentSessionID(c echo.Context) string {
	sid, _ := c.Get(ContextSessionID).(string)
	return sid
}

// RequireGuest redirects signed-in authors away from login and signup pages.
func RequireGuest(redirectTo string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentAccount(c); ok {
				return c.Redirect(http.StatusSeeOther, redirectTo)
			}
			return next(c)
		}
	}
}

// RequireAuthenticated redirects anonymous requests to redirectTo.
func RequireAuthenticated(redirectTo string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentAccount(c); !ok {
				return c.Redirect(http.StatusSeeOther, redirectTo)
			}
			return next(c)
		}
	}
}
