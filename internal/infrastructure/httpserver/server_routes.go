package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	// Org-facing routes: identity first, then throttling, then business logic.
	orgs := api.Group("/orgs")
	orgs.Use(s.middleware.OrgIdentity.RequireOrg())
	orgs.Use(s.middleware.RateLimit.Handler())
	orgs.GET("/:org_id/usage", s.getUsage)
	orgs.GET("/:org_id/quota/:resource", s.checkQuota)
	orgs.POST("/:org_id/quota/consume", s.consumeQuota)

	// Administrative routes: static key, no throttling (operator tooling).
	admin := api.Group("/admin")
	admin.Use(s.middleware.Admin.RequireAdminKey())
	admin.POST("/orgs/:org_id/quota/initialize", s.initializeQuota)
	admin.POST("/orgs/:org_id/quota/reset", s.resetQuota)
	admin.POST("/orgs/:org_id/quota/reconcile-storage", s.reconcileStorage)
	admin.GET("/orgs/:org_id/quota/events", s.listQuotaEvents)
	admin.DELETE("/rate-limits/:identifier", s.resetRateLimit)
}
