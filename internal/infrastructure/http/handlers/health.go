package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles GET /health: liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Liveness godoc
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]string
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependency names a Pinger in the readiness report.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthDependenciesHandler handles GET /health/ready: readiness probe.
// Checks every dependency (MongoDB, Redis, the hosted backend) before
// declaring the service ready.
type HealthDependenciesHandler struct {
	deps    []Dependency
	timeout time.Duration
}

func NewHealthDependenciesHandler(deps ...Dependency) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{deps: deps, timeout: 3 * time.Second}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness godoc
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} readinessResponse
// @Failure  503 {object} readinessResponse
// @Router   /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(h.deps))
	for _, d := range h.deps {
		go func(d Dependency) {
			results <- result{name: d.Name, err: d.Pinger.Ping(ctx)}
		}(d)
	}

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true
	for range h.deps {
		r := <-results
		if r.err != nil {
			deps[r.name] = dependencyStatus{Status: "unhealthy", Error: r.err.Error()}
			healthy = false
			continue
		}
		deps[r.name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
