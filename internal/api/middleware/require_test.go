package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/core/domain"
)

func TestRequireSession_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(handler.SessionKey, &domain.Session{AccessToken: "tok"})

	called := false
	h := RequireSession()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireSession_Denies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireSession()(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
