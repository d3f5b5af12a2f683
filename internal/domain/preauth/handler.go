package preauth

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
	api.POST("/nphies/preauth", h.Submit)
}

// Submit handles POST /api/nphies/preauth.
func (h *Handler) Submit(c echo.Context) error {
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

	env, err := h.svc.Submit(c.Request().Context(), req)
	if err != nil {
		return nphies.WriteGatewayError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, env)
}
