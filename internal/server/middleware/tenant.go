package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RequireTenant checks that the {tenantId} path segment, the X-Tenant-ID
// header and the authenticated tenant all name the same tenant. It must be
// chained after Auth inside a route that declares {tenantId}.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid, ok := TenantIDFromContext(r.Context())
			if !ok {
				writeProblem(w, http.StatusForbidden, "valid tenant required")
				return
			}

			header := r.Header.Get(HeaderTenantID)
			if header == "" {
				writeProblem(w, http.StatusBadRequest, HeaderTenantID+" header is required")
				return
			}

			if header != tid || chi.URLParam(r, "tenantId") != tid {
				writeProblem(w, http.StatusForbidden, "tenant mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
