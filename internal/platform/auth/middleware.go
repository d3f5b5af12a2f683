package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Context keys set by RequireAuth.
const (
	UsernameKey   = "auth_username"
	RoleKey       = "auth_role"
	ProviderIDKey = "auth_provider_id"
)

// unauthorizedBody tells the client to re-authenticate, distinctly from a
// business rejection: code SESSION_INVALID means "log in again", not "fix
// the submission".
type unauthorizedBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RequireAuth guards a route group with bearer session tokens. Missing,
// malformed, and expired tokens all answer 401 with the re-authentication
// signal.
func RequireAuth(tokens *TokenService, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, unauthorizedBody{
					Error:   "unauthorized",
					Code:    "SESSION_INVALID",
					Message: "Missing or invalid Authorization header",
				})
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				rid, _ := c.Get("request_id").(string)
				logger.Warn().Err(err).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("rejected session token")
				return c.JSON(http.StatusUnauthorized, unauthorizedBody{
					Error:   "unauthorized",
					Code:    "SESSION_INVALID",
					Message: "Session expired or invalid, please log in again",
				})
			}

			c.Set(UsernameKey, claims.Username)
			c.Set(RoleKey, claims.Role)
			c.Set(ProviderIDKey, claims.ProviderID)
			return next(c)
		}
	}
}

// Username returns the authenticated username from the echo context.
func Username(c echo.Context) string {
	s, _ := c.Get(UsernameKey).(string)
	return s
}

// ProviderID returns the authenticated caller's provider id.
func ProviderID(c echo.Context) string {
	s, _ := c.Get(ProviderIDKey).(string)
	return s
}
