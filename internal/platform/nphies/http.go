package nphies

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WriteGatewayError produces the caller-facing response for an
// infrastructure failure. Full detail is logged server-side; the caller
// sees a generic envelope because neither an upstream credential problem
// nor a transport outage is their fault or their data's.
func WriteGatewayError(c echo.Context, logger zerolog.Logger, err error) error {
	ge, ok := AsGatewayError(err)
	if !ok {
		ge = &GatewayError{Kind: KindTransient, Message: "unexpected failure", Err: err}
	}

	rid, _ := c.Get("request_id").(string)
	logger.Error().Err(ge).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("exchange operation failed")

	switch ge.Kind {
	case KindUpstreamAuth:
		return c.JSON(http.StatusBadGateway, failureEnvelope(
			"UPSTREAM_AUTH_ERROR",
			"Unable to reach the claims exchange, please try again later",
		))
	default:
		return c.JSON(http.StatusServiceUnavailable, failureEnvelope(
			"SERVICE_UNAVAILABLE",
			"Claims exchange temporarily unavailable, please try again later",
		))
	}
}
