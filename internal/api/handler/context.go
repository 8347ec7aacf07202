package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/service"
)

// Context keys set by the session and chrome middleware.
const (
	SessionKey = "session"
	ChromeKey  = "chrome"
)

// ctxSession extracts the session injected by the session middleware and
// fails fast with 401 before any service call when there is none.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, _ := c.Get(SessionKey).(*domain.Session)
	if sess == nil || sess.AccessToken == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return sess, nil
}

// ctxChrome returns the user's chrome store, or a throwaway one for
// anonymous pages.
func ctxChrome(c echo.Context) *service.ChromeStore {
	if store, ok := c.Get(ChromeKey).(*service.ChromeStore); ok && store != nil {
		return store
	}
	return &service.ChromeStore{}
}
