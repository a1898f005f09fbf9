package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// wrap applies the standard middleware chain: CORS, rate limiting, auth,
// and the per-request deadline, outermost first.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return s.corsMiddleware(s.rateLimitMiddleware(s.authMiddleware(s.timeoutMiddleware(next))))
}

// corsMiddleware adds CORS headers for configured allowed origins and
// answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// originAllowed matches the request origin against configured prefixes, so
// "http://localhost" covers any localhost port.
func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if origin == allowed || strings.HasPrefix(origin, allowed+":") {
			return true
		}
	}
	return false
}

// rateLimitMiddleware rejects requests beyond the configured request rate.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "Too many requests")
			return
		}
		next(w, r)
	}
}

// authMiddleware enforces bearer-token authentication when enabled.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Auth.Enabled {
			next(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Auth.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, codeAuth, "Missing or invalid credential")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// timeoutMiddleware attaches the per-request wall-clock deadline. Handlers
// see it through the request context; expiry surfaces as a timeout error at
// the boundary.
func (s *Server) timeoutMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}
