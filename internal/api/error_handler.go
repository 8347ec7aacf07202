package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Error()
	}

	// A revoked token sends the client back to login instead of "try again".
	if errors.Is(err, domain.ErrUnauthenticated) {
		return http.StatusUnauthorized, "authentication required"
	}

	// Upstream failures all look the same to the user; the cause goes to the log.
	var re *domain.RemoteError
	if errors.As(err, &re) || errors.Is(err, domain.ErrTransport) || errors.Is(err, domain.ErrInvalidPayload) {
		logRequestError(log, c, err, zerolog.WarnLevel, "upstream error")
		return http.StatusBadGateway, "the service is temporarily unavailable, try again"
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrUnknownChat):
		return http.StatusNotFound, "unknown chat"
	}

	// Unexpected error: log the real cause, return a generic message.
	logRequestError(log, c, err, zerolog.ErrorLevel, "unhandled error")
	return http.StatusInternalServerError, "internal server error"
}

func logRequestError(log zerolog.Logger, c echo.Context, err error, lvl zerolog.Level, msg string) {
	log.WithLevel(lvl).
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg(msg)
}
