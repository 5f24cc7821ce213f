package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gosuda/fareledger/internal/auth"
)

// Auth authenticates a request from a Bearer token or, failing that, the
// session cookie, and stores tenant, user and role in the context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, tok := range []string{extractBearer(r), sessionCookie(r)} {
				if tok == "" {
					continue
				}
				if ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret); ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

func sessionCookie(r *http.Request) string {
	c, err := r.Cookie(CookieSession)
	if err != nil {
		return ""
	}
	return c.Value
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	claims, err := auth.ParseKind(secret, tokenStr, auth.TokenAccess)
	if err != nil {
		return ctx, false
	}

	id := claims.Identity()
	ctx = context.WithValue(ctx, ContextKeyTenantID, id.TenantID)
	ctx = context.WithValue(ctx, ContextKeyUserID, id.UserID)
	ctx = context.WithValue(ctx, ContextKeyUserRole, id.Role)
	return ctx, true
}
