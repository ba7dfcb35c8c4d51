package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/enewspaper/newsroom/internal/core/ports"
)

const (
	SessionCookie  = "user.id"
	RememberCookie = "remember_me"
)

// CookieConfig controls the session and remember-me cookies.
type CookieConfig struct {
	Secure      bool
	SessionTTL  time.Duration
	RememberTTL time.Duration
}

// SetLoginCookies writes the session cookie and, when present, the rotated
// remember-me cookie from a login result.
func SetLoginCookies(c echo.Context, cfg CookieConfig, res *ports.LoginResult) {
	c.SetCookie(newCookie(SessionCookie, res.SessionID, cfg.SessionTTL, cfg.Secure))
	if res.RememberToken != "" {
		c.SetCookie(newCookie(RememberCookie, res.RememberToken, cfg.RememberTTL, cfg.Secure))
	}
}

// ClearLoginCookies expires both authentication cookies.
func ClearLoginCookies(c echo.Context, cfg CookieConfig) {
	c.SetCookie(expiredCookie(SessionCookie, cfg.Secure))
	c.SetCookie(expiredCookie(RememberCookie, cfg.Secure))
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func newCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
