package httpx

import "net/http"

// RequireUser sends anonymous callers to loginPath with a 303.
func RequireUser(loginPath string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				SeeOther(w, r, loginPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectTo is a handler that always answers with a 303 to target.
func RedirectTo(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SeeOther(w, r, target)
	})
}
