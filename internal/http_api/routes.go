package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.POST("/api/claim", s.claim)
	s.router.GET("/api/status", s.status)
	s.router.NoMethod(s.methodNotAllowed)
}
