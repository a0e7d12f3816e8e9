package http

import (
	"net/http"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/pkg/estatesdk"
	"github.com/aussiebroadwan/estate/pkg/httpx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

type ListingsAPIHandler struct {
	Listings *service.ListingService
}

// ServeHTTP lists every listing with its category and price band.
//
//	@Summary		List listings
//	@Description	Returns every listing with coordinates, image name, category and price band. Images are served from /uploads/{image}. There is no pagination.
//	@Tags			Listings
//	@Produce		json
//	@Success		200	{array}		estatesdk.Listing		"Listings"
//	@Failure		500	{object}	estatesdk.ErrorResponse	"Internal server error"
//	@Router			/api/listings [get].
func (h *ListingsAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Listings.ListAll(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to list listings", "err", err)
		estatesdk.ErrServerError.WriteError(w)
		return
	}

	out := make([]estatesdk.Listing, 0, len(listings))
	for _, d := range listings {
		out = append(out, listingResponse(d))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func listingResponse(d domain.ListingDetail) estatesdk.Listing {
	return estatesdk.Listing{
		ID:        d.ID,
		Title:     d.Title,
		Image:     d.Image,
		Lat:       d.Lat,
		Lng:       d.Lng,
		Category:  estatesdk.Ref{ID: d.Category.ID, Name: d.Category.Name},
		PriceBand: estatesdk.Ref{ID: d.PriceBand.ID, Name: d.PriceBand.Name},
	}
}
