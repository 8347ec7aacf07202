package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/service"
)

// Chrome injects the signed-in user's layout store under handler.ChromeKey.
func Chrome(registry *service.ChromeRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sess, _ := c.Get(handler.SessionKey).(*domain.Session); sess != nil && sess.User.ID != "" {
				c.Set(handler.ChromeKey, registry.For(sess.User.ID))
			}
			return next(c)
		}
	}
}
