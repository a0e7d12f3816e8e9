package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/pkg/httpx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

// SessionCookie holds the signed session token.
const SessionCookie = "_token"

type identityKey struct{}

// WithIdentity attaches the signed-in caller to ctx, both as an Identity
// and as the user ID read by httpx middleware.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	return httpx.WithUserID(ctx, id.Subject())
}

// IdentityFromContext returns the signed-in caller, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// sessionResolver turns the session cookie into an identity. A token for a
// user that no longer exists leaves the request anonymous; a token that
// fails verification is rejected.
func sessionResolver(accounts *service.AccountService) httpx.SessionResolver {
	return func(ctx context.Context, raw string) (context.Context, error) {
		id, err := accounts.ResolveSession(ctx, raw)
		switch {
		case err == nil:
			ctx = WithIdentity(ctx, id)
			return slogx.With(ctx, slog.Int64("user_id", id.ID)), nil
		case errors.Is(err, service.ErrUserNotFound):
			return ctx, nil
		case errors.Is(err, service.ErrInvalidSession):
			return nil, err
		default:
			slogx.FromContext(ctx).Error("failed to resolve session", slog.Any("error", err))
			return ctx, nil
		}
	}
}

// IdentityMiddleware resolves the session cookie on every request and
// sends callers with a bad cookie to the login page.
func IdentityMiddleware(accounts *service.AccountService) httpx.Middleware {
	return httpx.CookieAuthnMiddleware(SessionCookie, sessionResolver(accounts), httpx.RedirectTo("/auth/login"))
}

// caller returns the signed-in user of a route behind httpx.RequireUser.
func caller(r *http.Request) domain.Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}
