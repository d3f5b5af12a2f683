package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sahl-health/nphies-gateway/internal/platform/auth"
)

// Logger emits one structured line per request. Submissions are tied back
// to the authenticated caller: on protected routes the line carries the
// username and the provider facility the session submits on behalf of.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			rid, _ := c.Get("request_id").(string)
			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if username := auth.Username(c); username != "" {
				evt = evt.Str("username", username)
			}
			if providerID := auth.ProviderID(c); providerID != "" {
				evt = evt.Str("provider_id", providerID)
			}

			evt.Msg("request")
			return err
		}
	}
}
