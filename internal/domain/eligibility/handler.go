package eligibility

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sahl-health/nphies-gateway/internal/platform/nphies"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/nphies/eligibility", h.Check)
}

// Check handles POST /api/nphies/eligibility. Validation gates the
// outbound call so malformed input never costs an authenticated
// round-trip to the exchange.
func (h *Handler) Check(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": []string{"Request body is not valid JSON"},
		})
	}

	if res := req.Validate(); !res.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": res.Errors,
		})
	}

	env, err := h.svc.Check(c.Request().Context(), req)
	if err != nil {
		return nphies.WriteGatewayError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, env)
}
