package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout. The login page path itself is configurable (LOGIN_PATH).
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteCallback   = "/auth/callback"

	// Protected dashboard routes (JSON)
	RouteDashboard            = "/dashboard"
	RouteDashboardProducts    = "/dashboard/products"
	RouteDashboardOrders      = "/dashboard/orders"
	RouteDashboardOrderStatus = "/dashboard/orders/{id}/status"
	RouteSettingsProfile      = "/settings/profile"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// Query parameters used between the guard, the login page and the callback
const (
	paramReturnTo = "returnTo"
	paramError    = "error"
)

// Error codes shown to the user agent. They are deliberately non-specific.
const (
	errorAuthenticationFailed = "authentication_failed"
	errorAccessDenied         = "access_denied"
	errorSessionExpired       = "session_expired"
)
