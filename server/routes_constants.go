package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthGoogle  = "/auth/google"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	// User Routes
	RouteUserMe      = "/user/me"
	RouteUserRole    = "/user/role"
	RouteUserCompany = "/user/company"

	// System Routes
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)

// Cookie names and paths used in cookie storage mode
const (
	AccessTokenCookie  = "auth_token"
	RefreshTokenCookie = "refresh_token"
	refreshCookiePath  = "/auth"
)
