package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/core/domain"
)

// RequireSession answers 401 to API callers without a session.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sess, _ := c.Get(handler.SessionKey).(*domain.Session); sess == nil || sess.AccessToken == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
