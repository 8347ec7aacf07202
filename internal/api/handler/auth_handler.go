package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// CookieOptions shape the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Forgetter drops per-user in-memory state on sign-out.
type Forgetter interface {
	Forget(userID string)
}

// Forgetters fans a sign-out out to every per-user store.
type Forgetters []Forgetter

func (fs Forgetters) Forget(userID string) {
	for _, f := range fs {
		f.Forget(userID)
	}
}

type AuthHandler struct {
	authService ports.AuthService
	forget      Forgetter
	cookie      CookieOptions
	resetURL    string
}

// NewAuthHandler wires the session endpoints. resetURL is where the password
// reset email sends the user back to.
func NewAuthHandler(authService ports.AuthService, forget Forgetter, cookie CookieOptions, resetURL string) *AuthHandler {
	return &AuthHandler{authService: authService, forget: forget, cookie: cookie, resetURL: resetURL}
}

// Login signs in with email and password and sets the session cookie.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        next  query     string        false  "Page to return to after sign-in"
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.sessionCookie(sess.ID, h.cookie.MaxAge))
	return c.JSON(http.StatusOK, sessionResponse{
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
		Redirect:  redirectTarget(c.QueryParam("next")),
	})
}

// Logout ends the session. It succeeds even without a session.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess, _ := c.Get(SessionKey).(*domain.Session); sess != nil {
		h.forget.Forget(sess.User.ID)
	}
	if ck, err := c.Cookie(h.cookie.Name); err == nil && ck.Value != "" {
		if err := h.authService.SignOut(c.Request().Context(), ck.Value); err != nil {
			return err
		}
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Reset sends a password reset email.
//
// @Summary      Request a password reset email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Account email"
// @Success      202   {object}  acceptedResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /auth/reset [post]
func (h *AuthHandler) Reset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email, h.resetURL); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "if the account exists, a reset email was sent"})
}

// Password sets a new password for the signed-in user.
//
// @Summary      Update password
// @Tags         auth
// @Accept       json
// @Param        body  body  passwordRequest  true  "New password"
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/password [post]
func (h *AuthHandler) Password(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.UpdatePassword(c.Request().Context(), sess, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session reports the current user.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: sess.User, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHandler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		ck.MaxAge = -1
	} else if maxAge > 0 {
		ck.MaxAge = int(maxAge / time.Second)
	}
	return ck
}

// redirectTarget keeps post-login redirects on this site.
func redirectTarget(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/app/dashboard"
	}
	return next
}
