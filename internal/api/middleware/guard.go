package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/service"
)

// PageGuard decides whether a protected page may render.
type PageGuard interface {
	Decide(ctx context.Context, sess *domain.Session, path string) service.Decision
	OnboardingPath() string
}

// Guard gates page routes. Anonymous callers are sent to loginPath with the
// requested path in ?next=, unfinished profiles to the onboarding page. The
// page handler never runs on a redirect.
func Guard(g PageGuard, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, _ := c.Get(handler.SessionKey).(*domain.Session)
			path := c.Request().URL.Path

			switch g.Decide(c.Request().Context(), sess, path) {
			case service.DecisionLogin:
				return c.Redirect(http.StatusSeeOther, loginPath+"?next="+url.QueryEscape(path))
			case service.DecisionOnboarding:
				return c.Redirect(http.StatusSeeOther, g.OnboardingPath())
			}
			return next(c)
		}
	}
}
