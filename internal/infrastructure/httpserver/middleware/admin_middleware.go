package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const adminKeyHeader = "X-Admin-Key"

type AdminMiddleware struct {
	apiKey string
	logger *logrus.Logger
}

func NewAdminMiddleware(apiKey string, logger *logrus.Logger) *AdminMiddleware {
	return &AdminMiddleware{apiKey: apiKey, logger: logger}
}

// RequireAdminKey guards administrative quota endpoints with a static API key,
// compared in constant time.
func (m *AdminMiddleware) RequireAdminKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(adminKeyHeader)
			if provided == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing admin key")
			}
			if m.apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(m.apiKey)) != 1 {
				if m.logger != nil {
					m.logger.WithField("ip", c.RealIP()).Warn("rejected admin request with bad key")
				}
				return echo.NewHTTPError(http.StatusForbidden, "invalid admin key")
			}
			return next(c)
		}
	}
}
