package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sahl-health/nphies-gateway/internal/platform/metrics"
)

// Handler exposes the login endpoint.
type Handler struct {
	users  *UserStore
	tokens *TokenService
	logger zerolog.Logger
}

// NewHandler wires the login surface.
func NewHandler(users *UserStore, tokens *TokenService, logger zerolog.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// RegisterRoutes mounts the unauthenticated auth routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	ProviderID string `json:"providerId"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed login request")
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("failure").Inc()
			h.logger.Warn().Str("username", req.Username).Str("remote_ip", c.RealIP()).Msg("failed login")
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   "Invalid username or password",
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login unavailable")
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue session token")
		return echo.NewHTTPError(http.StatusInternalServerError, "login unavailable")
	}

	metrics.Logins.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Success: true,
		Token:   token,
		User: loginUser{
			Username:   user.Username,
			Role:       user.Role,
			ProviderID: user.ProviderID,
		},
	})
}
