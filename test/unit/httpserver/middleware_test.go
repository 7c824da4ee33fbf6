package httpserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/domain/ratelimit"
	"github.com/loomhq/resource-governor/internal/infrastructure/httpserver/helpers"
	"github.com/loomhq/resource-governor/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/loomhq/resource-governor/test/mocks"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func signedOrgToken(t *testing.T, orgID string) string {
	t.Helper()
	claims := &middleware.OrgClaims{
		OrgID:            orgID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestOrgIdentityMiddleware_MissingTokenReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewOrgIdentityMiddleware(testJWTSecret, logrus.New())
	handler := m.RequireOrg()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestOrgIdentityMiddleware_BadSignatureReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewOrgIdentityMiddleware("other-secret", logrus.New())
	handler := m.RequireOrg()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedOrgToken(t, "org-1"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestOrgIdentityMiddleware_TokenWithoutOrgReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewOrgIdentityMiddleware(testJWTSecret, logrus.New())
	handler := m.RequireOrg()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedOrgToken(t, ""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestOrgIdentityMiddleware_SetsOrgOnContext(t *testing.T) {
	e := echo.New()
	m := middleware.NewOrgIdentityMiddleware(testJWTSecret, logrus.New())
	var seenOrg string
	handler := m.RequireOrg()(func(c echo.Context) error {
		seenOrg, _ = helpers.GetOrgIDRaw(c)
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedOrgToken(t, "org-1"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.Equal(t, "org-1", seenOrg)
}

func TestAdminMiddleware_MissingKeyReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewAdminMiddleware("admin-key", logrus.New())
	handler := m.RequireAdminKey()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestAdminMiddleware_WrongKeyReturns403(t *testing.T) {
	e := echo.New()
	m := middleware.NewAdminMiddleware("admin-key", logrus.New())
	handler := m.RequireAdminKey()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Key", "guess")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, htErr.Code)
}

func TestAdminMiddleware_CorrectKeyPasses(t *testing.T) {
	e := echo.New()
	m := middleware.NewAdminMiddleware("admin-key", logrus.New())
	handler := m.RequireAdminKey()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware_DeniedReturns429WithHeaders(t *testing.T) {
	e := echo.New()
	limiter := &tmocks.RateLimiterServiceMock{CheckLimitFn: func(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult {
		return &ratelimit.LimitResult{Allowed: false, Remaining: 0, Limit: limit, RetryAfter: 17}
	}}
	m := middleware.NewRateLimitMiddleware(limiter, 100, nil, logrus.New())
	handler := m.Handler()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, htErr.Code)
	require.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "17", rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_AllowedSetsHeadersAndPasses(t *testing.T) {
	e := echo.New()
	limiter := &tmocks.RateLimiterServiceMock{CheckLimitFn: func(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult {
		return &ratelimit.LimitResult{Allowed: true, Remaining: 42, Limit: limit}
	}}
	m := middleware.NewRateLimitMiddleware(limiter, 100, nil, logrus.New())
	handler := m.Handler()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "42", rec.Header().Get("X-RateLimit-Remaining"))
	require.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_UsesOrgIdentityWhenPresent(t *testing.T) {
	e := echo.New()
	var gotIdentifier string
	limiter := &tmocks.RateLimiterServiceMock{CheckLimitFn: func(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult {
		gotIdentifier = identifier
		return &ratelimit.LimitResult{Allowed: true, Remaining: limit, Limit: limit}
	}}
	m := middleware.NewRateLimitMiddleware(limiter, 100, nil, logrus.New())
	handler := m.Handler()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	helpers.SetOrgID(c, "org-1")
	require.NoError(t, handler(c))
	require.Equal(t, "org-1", gotIdentifier)
}

func TestRateLimitMiddleware_FallsBackToIP(t *testing.T) {
	e := echo.New()
	var gotIdentifier string
	limiter := &tmocks.RateLimiterServiceMock{CheckLimitFn: func(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult {
		gotIdentifier = identifier
		return &ratelimit.LimitResult{Allowed: true, Remaining: limit, Limit: limit}
	}}
	m := middleware.NewRateLimitMiddleware(limiter, 100, nil, logrus.New())
	handler := m.Handler()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.Equal(t, "10.1.2.3", gotIdentifier)
}
