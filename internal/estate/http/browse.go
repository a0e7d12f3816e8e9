package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/pkg/httpx"
)

const (
	// homeSections is how many categories get a section on the home page.
	homeSections = 2
	// homeLatest is how many listings each home section shows.
	homeLatest = 3
)

// BrowseHandler serves the public pages: home, category, search and the
// listing page.
type BrowseHandler struct {
	Listings *service.ListingService
	Catalog  *service.CatalogService
}

type homeSection struct {
	Category domain.Category
	Listings []domain.ListingDetail
}

type homeData struct {
	Categories []domain.Category
	PriceBands []domain.PriceBand
	Sections   []homeSection
}

// Home shows the catalog and the newest listings of the first categories.
func (h *BrowseHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cats, bands, err := h.Catalog.Options(ctx)
	if err != nil {
		serverError(w, r, err)
		return
	}

	data := homeData{Categories: cats, PriceBands: bands}
	for _, cat := range cats[:min(homeSections, len(cats))] {
		latest, err := h.Listings.Latest(ctx, cat.ID, homeLatest)
		if err != nil {
			serverError(w, r, err)
			return
		}
		data.Sections = append(data.Sections, homeSection{Category: cat, Listings: latest})
	}

	render(w, r, http.StatusOK, pageHome, view{Title: "Home", Data: data})
}

// Category lists the listings of one category.
func (h *BrowseHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, "/404")
		return
	}

	cat, listings, err := h.Listings.ListByCategory(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		httpx.SeeOther(w, r, "/404")
	case err != nil:
		serverError(w, r, err)
	default:
		render(w, r, http.StatusOK, pageListings, view{Title: cat.Name + " for sale", Data: listings})
	}
}

// Search matches the posted term against listing titles. A blank term
// sends the caller back where they came from.
func (h *BrowseHandler) Search(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Listings.Search(r.Context(), r.PostFormValue("term"))
	switch {
	case errors.Is(err, service.ErrEmptySearch):
		httpx.SeeOther(w, r, httpx.SameOriginReferer(r, "/"))
	case err != nil:
		serverError(w, r, err)
	default:
		render(w, r, http.StatusOK, pageListings, view{Title: "Search results", Data: listings})
	}
}

type showData struct {
	Listing  domain.ListingDetail
	IsSeller bool
}

// Show renders one listing.
func (h *BrowseHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, "/404")
		return
	}

	who := caller(r)
	d, err := h.Listings.Show(r.Context(), id, who)
	switch {
	case errors.Is(err, service.ErrListingNotFound):
		httpx.SeeOther(w, r, "/404")
		return
	case err != nil:
		serverError(w, r, err)
		return
	}

	data := showData{Listing: d, IsSeller: d.OwnedBy(who)}
	render(w, r, http.StatusOK, pageShow, view{Title: d.Title, Data: data})
}

// NotFound is the landing page of every "does not exist" redirect.
func (h *BrowseHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, pageNotFound, view{Title: "Not found"})
}
