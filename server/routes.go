package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("GET "+s.config.GetLoginPath(), s.LoginPageUIHandler())
	s.RegisterRouteFunc("GET "+RouteAuthLogin, s.LoginStartHandler())
	s.RegisterRouteFunc("GET "+RouteCallback, s.OAuthCallbackHandler())
	s.RegisterRouteFunc("POST "+RouteCallback, s.OAuthCallbackHandler()) // For form_post response mode
	s.RegisterRouteFunc("GET "+RouteAuthLogout, s.LogoutHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogout, s.LogoutHandler())

	// Dashboard routes (guarded by RequireSession through the protected prefixes)
	s.RegisterRouteFunc("GET "+RouteDashboard, s.DashboardHandler())
	s.RegisterRouteFunc("GET "+RouteDashboardProducts, s.ProductsListHandler())
	s.RegisterRouteFunc("POST "+RouteDashboardProducts, s.ProductCreateHandler())
	s.RegisterRouteFunc("GET "+RouteDashboardOrders, s.OrdersListHandler())
	s.RegisterRouteFunc("PATCH "+RouteDashboardOrderStatus, s.OrderStatusHandler())
	s.RegisterRouteFunc("GET "+RouteSettingsProfile, s.ProfileHandler())
	s.RegisterRouteFunc("PUT "+RouteSettingsProfile, s.ProfileUpdateHandler())

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.deps.Metrics.Handler())
}
