package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/stretchr/testify/require"
)

func TestHomeShowsLatestPerCategory(t *testing.T) {
	srv := newTestServer(t)
	srv.published(t, srv.owner, "Casa en la playa")

	rec := srv.get("/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "Casa en la playa")
	require.Contains(t, body, srv.priceBand.Name)
	require.Contains(t, body, "/categories/"+domain.FormatID(srv.category.ID))
}

func TestCategoryPage(t *testing.T) {
	srv := newTestServer(t)
	srv.published(t, srv.owner, "Casa azul")

	rec := srv.get("/categories/"+domain.FormatID(srv.category.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "House for sale")
	require.Contains(t, rec.Body.String(), "Casa azul")

	requireRedirect(t, srv.get("/categories/9999", nil), "/404")
	requireRedirect(t, srv.get("/categories/abc", nil), "/404")
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	srv.published(t, srv.owner, "Casa con jardin")
	srv.published(t, srv.owner, "Departamento centro")

	t.Run("matches title substring", func(t *testing.T) {
		rec := srv.postForm("/search", url.Values{"term": {"JARDIN"}}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Casa con jardin")
		require.NotContains(t, rec.Body.String(), "Departamento centro")
	})

	t.Run("blank term goes back", func(t *testing.T) {
		req := newFormRequest("/search", url.Values{"term": {"   "}})
		req.Header.Set("Referer", "http://example.com/categories/1")
		requireRedirect(t, srv.do(req, nil), "/categories/1")
	})

	t.Run("blank term without referer goes home", func(t *testing.T) {
		requireRedirect(t, srv.postForm("/search", url.Values{}, nil), "/")
	})
}

func TestShowListing(t *testing.T) {
	srv := newTestServer(t)
	l := srv.published(t, srv.owner, "Casa grande")
	path := "/listings/" + domain.FormatID(l.ID)

	t.Run("public page", func(t *testing.T) {
		rec := srv.get(path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Casa grande")
		require.Contains(t, rec.Body.String(), "/uploads/"+l.Image)
		require.NotContains(t, rec.Body.String(), "You are the seller")
	})

	t.Run("owner sees seller notice", func(t *testing.T) {
		rec := srv.get(path, srv.sessionFor(t, srv.owner))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "You are the seller")
	})

	t.Run("missing listing", func(t *testing.T) {
		requireRedirect(t, srv.get("/listings/9999", nil), "/404")
	})
}

func TestNotFoundPage(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.get("/404", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "does not exist")

	rec = srv.get("/no/such/page", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
