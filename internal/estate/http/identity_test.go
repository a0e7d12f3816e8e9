package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/stretchr/testify/require"
)

func TestIdentityMiddleware(t *testing.T) {
	srv := newTestServer(t)

	t.Run("no cookie is anonymous", func(t *testing.T) {
		rec := srv.get("/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `href="/auth/login"`)

		requireRedirect(t, srv.get("/my-listings", nil), "/auth/login")
	})

	t.Run("valid session reaches owner pages", func(t *testing.T) {
		rec := srv.get("/my-listings", srv.sessionFor(t, srv.owner))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Sign out (Owner)")
	})

	t.Run("tampered session is cleared and sent to login", func(t *testing.T) {
		cookie := srv.sessionFor(t, srv.owner)
		cookie.Value += "x"

		rec := srv.get("/", cookie)
		requireRedirect(t, rec, "/auth/login")

		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		require.Equal(t, SessionCookie, cleared[0].Name)
		require.Negative(t, cleared[0].MaxAge)
	})

	t.Run("session of a removed user is anonymous", func(t *testing.T) {
		ghost := domain.Identity{ID: 9999, Name: "Ghost"}

		rec := srv.get("/", srv.sessionFor(t, ghost))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Result().Cookies())

		requireRedirect(t, srv.get("/my-listings", srv.sessionFor(t, ghost)), "/auth/login")
	})
}

func TestIdentityNeverCarriesCredentials(t *testing.T) {
	srv := newTestServer(t)

	var seen domain.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)
	req.AddCookie(srv.sessionFor(t, srv.owner))

	IdentityMiddleware(srv.router.AccountService)(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, srv.owner, seen)
}

func TestCrossOriginFormsRejected(t *testing.T) {
	srv := newTestServer(t)

	req := newFormRequest("/search", url.Values{"term": {"casa"}})
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	rec := srv.do(req, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
