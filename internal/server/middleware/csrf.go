package middleware

import (
	"crypto/subtle"
	"net/http"
)

// CSRF enforces the double-submit cookie check on state-changing methods:
// the X-XSRF-TOKEN header must equal the XSRF-TOKEN cookie.
func CSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieXSRFToken)
			header := r.Header.Get(HeaderXSRFToken)
			if err != nil || cookie.Value == "" || header == "" ||
				subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
				writeProblem(w, http.StatusForbidden, "anti-forgery token missing or invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
