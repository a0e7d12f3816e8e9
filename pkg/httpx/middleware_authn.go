package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/estate/pkg/slogx"
)

// SessionResolver turns a raw session credential into a request context that
// carries the caller. Returning the context unchanged leaves the request
// anonymous; returning an error rejects the credential.
type SessionResolver func(ctx context.Context, raw string) (context.Context, error)

// CookieAuthnMiddleware resolves the session cookie on every request.
// Requests without the cookie continue anonymously. A cookie that fails to
// resolve is expired and the request is handed to onReject.
func CookieAuthnMiddleware(cookieName string, resolve SessionResolver, onReject http.Handler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := resolve(r.Context(), c.Value)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("session rejected", "err", err)
				ClearCookie(w, cookieName)
				onReject.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClearCookie expires a cookie on the client.
func ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
