package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

const roleAdmin = "admin"

// RequireAdmin rejects requests that AuthMiddleware did not mark as coming from the store admin
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, hasAdmin := GetAdmin(r.Context())
			role, hasRole := GetUserRole(r.Context())

			if !hasAdmin || !hasRole || role != roleAdmin {
				logger.Warn("Admin endpoint refused",
					zap.String("admin", admin),
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
