package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/stretchr/testify/require"
)

func TestOwnerRoutesRequireSignIn(t *testing.T) {
	srv := newTestServer(t)
	l := srv.draft(t, srv.owner, "Casa")
	id := domain.FormatID(l.ID)

	for _, path := range []string{"/my-listings", "/listings/new", "/listings/" + id + "/image", "/listings/" + id + "/edit"} {
		requireRedirect(t, srv.get(path, nil), "/auth/login")
	}
	requireRedirect(t, srv.postForm("/listings/new", srv.form("Casa"), nil), "/auth/login")
	requireRedirect(t, srv.postForm("/listings/"+id+"/delete", url.Values{}, nil), "/auth/login")

	_, err := srv.store.Listings().GetListingByID(context.Background(), l.ID)
	require.NoError(t, err)
}

func TestCreateAndPublishFlow(t *testing.T) {
	srv := newTestServer(t)
	session := srv.sessionFor(t, srv.owner)

	// 1. Create the draft
	rec := srv.postForm("/listings/new", srv.form("Casa nueva"), session)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/listings/"), location)
	require.True(t, strings.HasSuffix(location, "/image"), location)

	id, ok := domain.ParseID(strings.TrimSuffix(strings.TrimPrefix(location, "/listings/"), "/image"))
	require.True(t, ok)

	l, err := srv.store.Listings().GetListingByID(context.Background(), id)
	require.NoError(t, err)
	require.False(t, l.Published)
	require.Equal(t, srv.owner.ID, l.OwnerID)

	// 2. Image step
	rec = srv.get(location, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Casa nueva")

	requireRedirect(t, srv.postImage(t, location, pngImage, session), "/my-listings")

	l, err = srv.store.Listings().GetListingByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, l.IsLive())

	// 3. Published listings cannot take another image
	requireRedirect(t, srv.get(location, session), "/my-listings")
	requireRedirect(t, srv.postImage(t, location, []byte("\x89PNG\r\n\x1a\nother"), session), "/my-listings")

	again, err := srv.store.Listings().GetListingByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, l.Image, again.Image)

	// 4. My listings shows it as published
	rec = srv.get("/my-listings", session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Casa nueva")
	require.Contains(t, rec.Body.String(), "Published")
}

func TestCreateRejectsInvalidForm(t *testing.T) {
	srv := newTestServer(t)
	session := srv.sessionFor(t, srv.owner)

	form := srv.form("")
	form.Set("rooms", "many")
	form.Set("category_id", "9999")

	rec := srv.postForm("/listings/new", form, session)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `class="errors"`)
	// submitted values survive the round trip
	require.Contains(t, rec.Body.String(), `value="Main St 1"`)

	mine, err := srv.store.Listings().ListListings(context.Background(), store.ListingFilter{OwnerID: srv.owner.ID})
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestAttachImageRejectsBadUploads(t *testing.T) {
	srv := newTestServer(t)
	session := srv.sessionFor(t, srv.owner)
	l := srv.draft(t, srv.owner, "Casa")
	path := "/listings/" + domain.FormatID(l.ID) + "/image"

	t.Run("not an image", func(t *testing.T) {
		rec := srv.postImage(t, path, []byte("just some text"), session)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "Only JPEG, PNG or WebP images are allowed")
	})

	t.Run("missing file", func(t *testing.T) {
		rec := srv.postForm(path, url.Values{}, session)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "Select an image")
	})

	t.Run("too large", func(t *testing.T) {
		srv.router.ListingService.MaxUploadBytes = 16
		t.Cleanup(func() { srv.router.ListingService.MaxUploadBytes = 0 })

		rec := srv.postImage(t, path, append(pngImage, make([]byte, 64)...), session)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "The image must be at most")
	})

	got, err := srv.store.Listings().GetListingByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.False(t, got.Published)
	require.Empty(t, got.Image)
}

func TestForeignListingsRedirect(t *testing.T) {
	srv := newTestServer(t)
	l := srv.draft(t, srv.owner, "Casa ajena")
	id := domain.FormatID(l.ID)
	stranger := srv.sessionFor(t, srv.stranger)

	requireRedirect(t, srv.get("/listings/"+id+"/image", stranger), "/my-listings")
	requireRedirect(t, srv.get("/listings/"+id+"/edit", stranger), "/my-listings")
	requireRedirect(t, srv.postImage(t, "/listings/"+id+"/image", pngImage, stranger), "/my-listings")
	requireRedirect(t, srv.postForm("/listings/"+id+"/edit", srv.form("Mia"), stranger), "/my-listings")
	requireRedirect(t, srv.postForm("/listings/"+id+"/delete", url.Values{}, stranger), "/my-listings")

	got, err := srv.store.Listings().GetListingByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, "Casa ajena", got.Title)
	require.False(t, got.Published)

	// missing listings behave the same
	requireRedirect(t, srv.get("/listings/9999/edit", stranger), "/my-listings")
	requireRedirect(t, srv.postForm("/listings/9999/delete", url.Values{}, stranger), "/my-listings")
}

func TestEditListing(t *testing.T) {
	srv := newTestServer(t)
	session := srv.sessionFor(t, srv.owner)
	l := srv.published(t, srv.owner, "Casa vieja")
	path := "/listings/" + domain.FormatID(l.ID) + "/edit"

	rec := srv.get(path, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="Casa vieja"`)

	invalid := srv.form("Casa renovada")
	invalid.Set("lat", "north")
	rec = srv.postForm(path, invalid, session)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	requireRedirect(t, srv.postForm(path, srv.form("Casa renovada"), session), "/my-listings")

	got, err := srv.store.Listings().GetListingByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, "Casa renovada", got.Title)
	require.True(t, got.Published)
	require.Equal(t, l.Image, got.Image)
}

func TestDeleteListing(t *testing.T) {
	srv := newTestServer(t)
	session := srv.sessionFor(t, srv.owner)
	l := srv.published(t, srv.owner, "Casa")
	path := "/listings/" + domain.FormatID(l.ID) + "/delete"

	requireRedirect(t, srv.postForm(path, url.Values{}, session), "/my-listings")

	_, err := srv.store.Listings().GetListingByID(context.Background(), l.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	objects, err := srv.assets.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, objects)

	// a second delete finds nothing and lands on the same page
	requireRedirect(t, srv.postForm(path, url.Values{}, session), "/my-listings")
}
