package server

import "net/http"

// setupHTTPRoutes configures all HTTP handlers
func (s *Server) setupHTTPRoutes() {
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/api/prompt/", s.wrap(s.HandlePrompt))
}

// HandleHealth reports liveness and database reachability. It bypasses auth
// so probes work without a credential.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	status := "ok"
	httpStatus := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		s.logger.Warnw("Health check: database unreachable", "error", err)
	}
	writeJSON(w, httpStatus, map[string]string{"status": status})
}
