package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
	"github.com/loomhq/resource-governor/internal/infrastructure/httpserver/helpers"
)

// orgFromPath resolves the path org and checks it against the token identity;
// a caller may only act on its own organization.
func orgFromPath(c echo.Context) (string, error) {
	orgID := c.Param("org_id")
	if orgID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing organization id")
	}
	tokenOrg, err := helpers.GetOrgIDFromContext(c)
	if err != nil {
		return "", err
	}
	if tokenOrg != orgID {
		return "", echo.NewHTTPError(http.StatusForbidden, "organization mismatch")
	}
	return orgID, nil
}

func (s *Server) getUsage(c echo.Context) error {
	orgID, err := orgFromPath(c)
	if err != nil {
		return err
	}

	summary, err := s.quotaSvc.GetUsage(c.Request().Context(), orgID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to load usage")
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) checkQuota(c echo.Context) error {
	orgID, err := orgFromPath(c)
	if err != nil {
		return err
	}
	kind := quota.ResourceKind(c.Param("resource"))
	if !kind.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown resource kind")
	}

	status := s.quotaSvc.CheckQuota(c.Request().Context(), orgID, kind)
	return c.JSON(http.StatusOK, status)
}

type consumeQuotaRequest struct {
	Resource quota.ResourceKind `json:"resource"`
	Amount   int64              `json:"amount"`
}

func (s *Server) consumeQuota(c echo.Context) error {
	orgID, err := orgFromPath(c)
	if err != nil {
		return err
	}

	var req consumeQuotaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Resource.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown resource kind")
	}
	if req.Amount < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be non-negative")
	}

	result := s.quotaSvc.ConsumeQuota(c.Request().Context(), orgID, req.Resource, req.Amount)
	if !result.Success {
		if result.Error != "" {
			return echo.NewHTTPError(http.StatusServiceUnavailable, result.Error)
		}
		quotaDenials.WithLabelValues(string(req.Resource)).Inc()
		return c.JSON(http.StatusTooManyRequests, result)
	}
	return c.JSON(http.StatusOK, result)
}

type initializeQuotaRequest struct {
	Tier quota.Tier `json:"tier"`
}

func (s *Server) initializeQuota(c echo.Context) error {
	orgID := c.Param("org_id")
	if orgID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing organization id")
	}

	var req initializeQuotaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Tier.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown tier")
	}

	if err := s.quotaSvc.InitializeQuota(c.Request().Context(), orgID, req.Tier); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to initialize quota")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) resetQuota(c echo.Context) error {
	orgID := c.Param("org_id")
	if orgID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing organization id")
	}

	if err := s.quotaSvc.ResetQuota(c.Request().Context(), orgID); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to reset quota")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) reconcileStorage(c echo.Context) error {
	orgID := c.Param("org_id")
	if orgID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing organization id")
	}

	if err := s.quotaSvc.UpdateStorageUsage(c.Request().Context(), orgID); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to reconcile storage usage")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listQuotaEvents(c echo.Context) error {
	orgID := c.Param("org_id")
	if orgID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing organization id")
	}

	filter := &quota.EventFilter{OrgID: orgID}
	if a := c.QueryParam("action"); a != "" {
		action := quota.EventAction(a)
		filter.Action = &action
	}
	if l := c.QueryParam("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			filter.Offset = n
		}
	}

	events, err := s.quotaSvc.ListEvents(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to list quota events")
	}
	if events == nil {
		events = []*quota.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) resetRateLimit(c echo.Context) error {
	identifier := c.Param("identifier")
	s.rateLimiter.ResetLimit(c.Request().Context(), identifier)
	return c.NoContent(http.StatusNoContent)
}
