package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/enewspaper/newsroom/internal/api/metrics"
	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

// User-facing messages.
const (
	msgSignupDone         = "Your account has been created. Please check your email to verify it."
	msgSignupMailFailed   = "Your account has been created but we could not send the verification email. Please request a new one."
	msgLoginFailed        = "Username or password is incorrect."
	msgLoginInactive      = "Your account is not activated. Please check your email for the verification link."
	msgVerified           = "Your email has been verified. You can now log in."
	msgVerifyInvalid      = "This verification link is invalid or has expired."
	msgResendSent         = "A verification email has been sent. Please check your inbox."
	msgResendActivated    = "Your account is already activated. You can log in."
	msgResendPending      = "A verification email was already sent recently. Please check your inbox."
	msgResetRequested     = "If an account exists for that email, a password reset link has been sent."
	msgResetInvalid       = "This password reset link is invalid or has expired."
	msgResetDone          = "Your password has been changed. You can now log in."
	msgMailFailed         = "We could not send the email. Please try again later."
	msgSomethingWentWrong = "Something went wrong. Please try again later."
)

// AuthHandler serves the public authentication pages.
type AuthHandler struct {
	auth    ports.AuthService
	cookies middleware.CookieConfig
	log     zerolog.Logger
}

func NewAuthHandler(auth ports.AuthService, cookies middleware.CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, log: log}
}

func (h *AuthHandler) ShowLogin(c echo.Context) error {
	return c.Render(http.StatusOK, pageLogin, newPage(c, h.log, "Log in"))
}

// Login handles POST /login. The remember_me checkbox sends "on".
func (h *AuthHandler) Login(c echo.Context) error {
	in := ports.LoginInput{
		Identifier: strings.TrimSpace(c.FormValue("username")),
		Password:   c.FormValue("password"),
		RememberMe: isChecked(c.FormValue("remember_me")),
	}

	res, err := h.auth.Login(c.Request().Context(), in)
	if err != nil {
		page := newPage(c, h.log, "Log in")
		page.Form["username"] = in.Identifier

		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("password", "invalid_credentials").Inc()
			page.Message = msgLoginFailed
			return c.Render(http.StatusUnauthorized, pageLogin, page)
		case errors.Is(err, domain.ErrAccountInactive):
			metrics.LoginsTotal.WithLabelValues("password", "inactive").Inc()
			page.Message = msgLoginInactive
			return c.Render(http.StatusForbidden, pageLogin, page)
		default:
			metrics.LoginsTotal.WithLabelValues("password", "error").Inc()
			h.log.Error().Err(err).Msg("login")
			page.Message = msgSomethingWentWrong
			return c.Render(http.StatusInternalServerError, pageLogin, page)
		}
	}

	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()
	middleware.SetLoginCookies(c, h.cookies, res)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) ShowSignup(c echo.Context) error {
	return c.Render(http.StatusOK, pageSignup, newPage(c, h.log, "Sign up"))
}

// Signup handles POST /signup. Validation errors re-render the form with the
// non-password values the user entered.
func (h *AuthHandler) Signup(c echo.Context) error {
	var in ports.SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	_, err := h.auth.Signup(c.Request().Context(), in)

	var verr *domain.ValidationError
	switch {
	case err == nil:
		metrics.SignupsTotal.WithLabelValues("created").Inc()
		addFlash(c, h.log, flashSuccess, msgSignupDone)
	case errors.As(err, &verr):
		metrics.SignupsTotal.WithLabelValues("invalid").Inc()
		page := newPage(c, h.log, "Sign up")
		page.Errors = verr.Fields
		page.Form["username"] = in.Username
		page.Form["email"] = in.Email
		return c.Render(http.StatusUnprocessableEntity, pageSignup, page)
	case errors.Is(err, domain.ErrMailDelivery):
		metrics.SignupsTotal.WithLabelValues("mail_failed").Inc()
		metrics.MailDeliveryFailuresTotal.WithLabelValues("verification").Inc()
		h.log.Warn().Err(err).Msg("signup verification mail")
		addFlash(c, h.log, flashError, msgSignupMailFailed)
	default:
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("signup")
		addFlash(c, h.log, flashError, msgSomethingWentWrong)
	}
	return c.Redirect(http.StatusSeeOther, "/signup")
}

// Verify handles GET /verify/:token.
func (h *AuthHandler) Verify(c echo.Context) error {
	page := newPage(c, h.log, "Email verification")

	_, err := h.auth.VerifyAccount(c.Request().Context(), c.Param("token"))
	switch {
	case err == nil:
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeVerifyEmail), "consumed").Inc()
		page.Success = true
		page.Message = msgVerified
		return c.Render(http.StatusOK, pageVerify, page)
	case errors.Is(err, domain.ErrInvalidToken):
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeVerifyEmail), "invalid").Inc()
		page.Message = msgVerifyInvalid
		return c.Render(http.StatusBadRequest, pageVerify, page)
	default:
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeVerifyEmail), "error").Inc()
		h.log.Error().Err(err).Msg("verify account")
		page.Message = msgSomethingWentWrong
		return c.Render(http.StatusInternalServerError, pageVerify, page)
	}
}

func (h *AuthHandler) ShowSendVerification(c echo.Context) error {
	return c.Render(http.StatusOK, pageSendVerification, newPage(c, h.log, "Resend verification email"))
}

// SendVerification handles POST /send_verification.
func (h *AuthHandler) SendVerification(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	out, err := h.auth.ResendVerification(c.Request().Context(), email)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		page := newPage(c, h.log, "Resend verification email")
		page.Errors = verr.Fields
		page.Form["email"] = email
		return c.Render(http.StatusUnprocessableEntity, pageSendVerification, page)
	case errors.Is(err, domain.ErrMailDelivery):
		metrics.MailDeliveryFailuresTotal.WithLabelValues("verification").Inc()
		h.log.Warn().Err(err).Msg("resend verification mail")
		addFlash(c, h.log, flashError, msgMailFailed)
	case err != nil:
		h.log.Error().Err(err).Msg("resend verification")
		addFlash(c, h.log, flashError, msgSomethingWentWrong)
	default:
		switch out {
		case ports.ResendAlreadyActivated:
			addFlash(c, h.log, flashSuccess, msgResendActivated)
		case ports.ResendAlreadyPending:
			metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeVerifyEmail), "already_pending").Inc()
			addFlash(c, h.log, flashSuccess, msgResendPending)
		default:
			metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeVerifyEmail), "issued").Inc()
			addFlash(c, h.log, flashSuccess, msgResendSent)
		}
	}
	return c.Redirect(http.StatusSeeOther, "/send_verification")
}

func (h *AuthHandler) ShowSendReset(c echo.Context) error {
	return c.Render(http.StatusOK, pageSendReset, newPage(c, h.log, "Reset your password"))
}

// SendReset handles POST /send_reset_pwd_email. Every non-validation outcome
// shows the same message so account existence is never revealed.
func (h *AuthHandler) SendReset(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	out, err := h.auth.RequestPasswordReset(c.Request().Context(), email)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		page := newPage(c, h.log, "Reset your password")
		page.Errors = verr.Fields
		page.Form["email"] = email
		return c.Render(http.StatusUnprocessableEntity, pageSendReset, page)
	case errors.Is(err, domain.ErrMailDelivery):
		metrics.MailDeliveryFailuresTotal.WithLabelValues("password_reset").Inc()
		h.log.Warn().Err(err).Msg("password reset mail")
	case err != nil:
		h.log.Error().Err(err).Msg("password reset request")
	case out == ports.ResetAlreadySent:
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeResetPassword), "already_pending").Inc()
	default:
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeResetPassword), "issued").Inc()
	}

	addFlash(c, h.log, flashSuccess, msgResetRequested)
	return c.Redirect(http.StatusSeeOther, "/send_reset_pwd_email")
}

// ShowResetPassword handles GET /reset_pwd/:token. The form is only shown for
// a usable token.
func (h *AuthHandler) ShowResetPassword(c echo.Context) error {
	token := c.Param("token")
	page := newPage(c, h.log, "Choose a new password")

	err := h.auth.CheckResetToken(c.Request().Context(), token)
	switch {
	case err == nil:
		page.Token = token
		return c.Render(http.StatusOK, pageResetPassword, page)
	case errors.Is(err, domain.ErrInvalidToken):
		page.Message = msgResetInvalid
		return c.Render(http.StatusBadRequest, pageResetPassword, page)
	default:
		h.log.Error().Err(err).Msg("check reset token")
		page.Message = msgSomethingWentWrong
		return c.Render(http.StatusInternalServerError, pageResetPassword, page)
	}
}

// ResetPassword handles POST /reset_pwd/:token and renders the result in place.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var in ports.CompleteResetInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	in.Token = c.Param("token")
	page := newPage(c, h.log, "Choose a new password")

	err := h.auth.CompletePasswordReset(c.Request().Context(), in)

	var verr *domain.ValidationError
	switch {
	case err == nil:
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeResetPassword), "consumed").Inc()
		page.Success = true
		page.Message = msgResetDone
		return c.Render(http.StatusOK, pageResetPassword, page)
	case errors.Is(err, domain.ErrInvalidToken):
		metrics.TokenOperationsTotal.WithLabelValues(string(domain.PurposeResetPassword), "invalid").Inc()
		page.Message = msgResetInvalid
		return c.Render(http.StatusBadRequest, pageResetPassword, page)
	case errors.As(err, &verr):
		page.Token = in.Token
		page.Errors = verr.Fields
		return c.Render(http.StatusUnprocessableEntity, pageResetPassword, page)
	default:
		h.log.Error().Err(err).Msg("complete password reset")
		page.Token = in.Token
		page.Message = msgSomethingWentWrong
		return c.Render(http.StatusInternalServerError, pageResetPassword, page)
	}
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	in := ports.LogoutInput{SessionID: middleware.CurrentSessionID(c)}
	if account, ok := middleware.CurrentAccount(c); ok {
		in.AccountID = account.ID
	}

	if err := h.auth.Logout(c.Request().Context(), in); err != nil {
		h.log.Error().Err(err).Msg("logout")
	}
	middleware.ClearLoginCookies(c, h.cookies)
	return c.Redirect(http.StatusSeeOther, "/")
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
