package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger writes one access log entry per request through log and
// attaches a request-scoped logger to the request context, so handlers can
// use zerolog.Ctx. It must run after echo's RequestID middleware.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	access := echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Status >= 400:
				evt = log.Warn()
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		logged := access(next)
		return func(c echo.Context) error {
			reqLog := log.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			c.SetRequest(c.Request().WithContext(reqLog.WithContext(c.Request().Context())))
			return logged(c)
		}
	}
}
