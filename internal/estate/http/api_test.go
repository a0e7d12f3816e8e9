package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/estate/pkg/estatesdk"
	"github.com/stretchr/testify/require"
)

func TestListingsAPI(t *testing.T) {
	srv := newTestServer(t)
	l := srv.published(t, srv.owner, "Casa mapa")

	rec := srv.get("/api/listings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []estatesdk.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, []estatesdk.Listing{{
		ID:        l.ID,
		Title:     "Casa mapa",
		Image:     l.Image,
		Lat:       19.43,
		Lng:       -99.13,
		Category:  estatesdk.Ref{ID: srv.category.ID, Name: "House"},
		PriceBand: estatesdk.Ref{ID: srv.priceBand.ID, Name: srv.priceBand.Name},
	}}, got)

	// the wire names are part of the contract
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw[0], "price_band")
	require.Contains(t, raw[0], "category")
}

func TestListingsAPIEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.get("/api/listings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestUploads(t *testing.T) {
	srv := newTestServer(t)
	l := srv.published(t, srv.owner, "Casa")

	rec := srv.get("/uploads/"+l.Image, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, pngImage, rec.Body.Bytes())

	require.Equal(t, http.StatusNotFound, srv.get("/uploads/0123456789abcdef0123456789abcdef.png", nil).Code)
	require.Equal(t, http.StatusNotFound, srv.get("/uploads/.staging-123", nil).Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.get("/livez", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var live estatesdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &live))
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)
	require.Nil(t, live.Checks)

	rec = srv.get("/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ready estatesdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, &estatesdk.HealthChecks{Database: "ok", Assets: "ok"}, ready.Checks)
}

func TestReadyzDegraded(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.store.Close())

	rec := srv.get("/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var ready estatesdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	require.Equal(t, "degraded", ready.Status)
	require.Contains(t, ready.Checks.Database, "error")
	require.Equal(t, "ok", ready.Checks.Assets)
}
