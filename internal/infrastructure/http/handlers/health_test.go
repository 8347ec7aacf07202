package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestLiveness(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	if err := NewHealthHandler().Liveness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		deps       []Dependency
		wantStatus int
		wantBody   string
	}{
		{"all up", []Dependency{{"mongodb", ok}, {"redis", ok}, {"backend", ok}}, http.StatusOK, "ok"},
		{"redis down", []Dependency{{"mongodb", ok}, {"redis", down}, {"backend", ok}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rec := httptest.NewRecorder()

			h := NewHealthDependenciesHandler(tc.deps...)
			if err := h.Readiness(e.NewContext(req, rec)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}

			var body readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tc.wantBody {
				t.Fatalf("expected status %q, got %q", tc.wantBody, body.Status)
			}
			if len(body.Dependencies) != len(tc.deps) {
				t.Fatalf("expected %d dependencies, got %d", len(tc.deps), len(body.Dependencies))
			}
		})
	}
}
