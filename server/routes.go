package server

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthGoogle, ChainMiddleware(s.GoogleExchangeHandler(), s.AuthEndpointMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.AuthEndpointMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.AuthEndpointMiddleware()...))

	// USER (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteUserMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteUserRole, ChainMiddleware(s.ChangeRoleHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteUserCompany, ChainMiddleware(s.SetCompanyHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))

	// SYSTEM
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}
