package server

const (
	RouteSessionLogin   = "/session/login"
	RouteSessionRefresh = "/session/refresh"
	RouteSessionLogout  = "/session/logout"
	RouteSessionMe      = "/session/me"
)

func (s *Server) initRoutes() {
	// Session endpoints - reachable without a prior credential
	s.RegisterRouteHandler("POST "+RouteSessionLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSessionRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSessionLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Protected endpoints (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteSessionMe, ChainMiddleware(s.MeHandler(), append(s.APIMiddleware(), s.RequireAuth())...))
}
