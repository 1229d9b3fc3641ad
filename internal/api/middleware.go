package api

import (
	"log/slog"
	"net/http"

	"github.com/terra-clan/symposium-registry/internal/metrics"
)

const (
	adminPasswordHeader  = "X-Admin-Password"
	deletePasswordHeader = "X-Delete-Password"
)

// adminAuthMiddleware checks the shared dashboard password on every admin request.
// There is no session and no lockout.
func (s *Server) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		password := r.Header.Get(adminPasswordHeader)
		if password == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "provide the "+adminPasswordHeader+" header")
			return
		}

		if err := s.deps.Admin.Authenticate(password); err != nil {
			slog.Warn("admin authentication failed", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			respondError(w, http.StatusUnauthorized, "unauthorized", "wrong admin password")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// maintenanceMiddleware holds public routes with a 503 while maintenance mode is on
func (s *Server) maintenanceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Settings.Fetch(r.Context()).MaintenanceMode {
			metrics.RecordGateClosed("all", "maintenance")
			w.Header().Set("Retry-After", "300")
			respondError(w, http.StatusServiceUnavailable, "maintenance", "the site is under maintenance, please check back soon")
			return
		}
		next.ServeHTTP(w, r)
	})
}
