package helpers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GetOrgIDFromContext returns the organization identity resolved by the
// org-identity middleware, or a 401 when the request carries none.
func GetOrgIDFromContext(c echo.Context) (string, error) {
	id, ok := GetOrgIDRaw(c)
	if !ok || id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid organization context")
	}
	return id, nil
}

// GetBearerTokenFromContext extracts the bearer token from the Authorization header.
func GetBearerTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
