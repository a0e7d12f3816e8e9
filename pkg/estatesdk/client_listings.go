package estatesdk

import (
	"context"
	"net/http"
)

// ListListings fetches every listing from the map API.
func (c *SDKClient) ListListings(ctx context.Context) ([]Listing, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/listings", nil, nil)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	if err := decodeJSON(resp, &listings, http.StatusOK); err != nil {
		return nil, err
	}

	return listings, nil
}
