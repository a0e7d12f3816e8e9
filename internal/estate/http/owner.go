package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/pkg/httpx"
)

const myListingsPath = "/my-listings"

// OwnerHandler serves the signed-in owner's listing management pages.
// Every route sits behind httpx.RequireUser.
type OwnerHandler struct {
	Listings *service.ListingService
	Catalog  *service.CatalogService

	// MaxUploadBytes bounds the multipart body of an image upload.
	MaxUploadBytes int64
}

type formData struct {
	Action     string
	Submit     string
	Form       service.ListingForm
	Categories []domain.Category
	PriceBands []domain.PriceBand
}

// MyListings shows every listing of the caller, drafts included.
func (h *OwnerHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Listings.ListMine(r.Context(), caller(r))
	if err != nil {
		serverError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, pageMyListings, view{Title: "My listings", Data: listings})
}

// NewForm shows the empty create form.
func (h *OwnerHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Publish a listing", "/listings/new", service.ListingForm{}, nil)
}

// Create stores a draft and continues to the image step.
func (h *OwnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	form := listingForm(r)

	l, err := h.Listings.Create(r.Context(), caller(r), form)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Publish a listing", "/listings/new", form, verr.Errors)
	case err != nil:
		serverError(w, r, err)
	default:
		httpx.SeeOther(w, r, fmt.Sprintf("/listings/%d/image", l.ID))
	}
}

// ImageForm shows the upload step of a draft.
func (h *OwnerHandler) ImageForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, myListingsPath)
		return
	}

	l, err := h.Listings.AwaitingImage(r.Context(), id, caller(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, pageListingImage, view{Title: "Add image: " + l.Title, Data: l})
}

// AttachImage stores the uploaded image and publishes the draft.
func (h *OwnerHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, myListingsPath)
		return
	}

	// 1. Lifecycle checks before reading the body
	l, err := h.Listings.AwaitingImage(ctx, id, caller(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	// 2. Read the upload
	up, verr := h.readUpload(w, r)
	if verr != nil {
		renderInvalid(w, r, pageListingImage, view{Title: "Add image: " + l.Title, Data: l}, verr)
		return
	}

	// 3. Publish
	_, err = h.Listings.AttachImage(ctx, id, caller(r), up)
	switch {
	case errors.As(err, &verr):
		renderInvalid(w, r, pageListingImage, view{Title: "Add image: " + l.Title, Data: l}, verr)
	case err != nil:
		h.lifecycleError(w, r, err)
	default:
		httpx.SeeOther(w, r, myListingsPath)
	}
}

// readUpload reads the "image" part fully. Size and content checks are
// left to the service; only a body too large to parse is rejected here.
func (h *OwnerHandler) readUpload(w http.ResponseWriter, r *http.Request) (service.Upload, *service.ValidationError) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = service.DefaultMaxUploadBytes
	}
	// room for the multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			verr := &service.ValidationError{}
			verr.Add("image", fmt.Sprintf("The image must be at most %d MB", limit>>20))
			return service.Upload{}, verr
		}
		return service.Upload{}, nil
	}

	f, hdr, err := r.FormFile("image")
	if err != nil {
		return service.Upload{}, nil
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return service.Upload{}, nil
	}
	return service.Upload{Filename: hdr.Filename, Data: data}, nil
}

// EditForm shows the edit form filled with the listing's current values.
func (h *OwnerHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, myListingsPath)
		return
	}

	l, err := h.Listings.Editable(r.Context(), id, caller(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "Edit listing: "+l.Title, editPath(id), service.FormFromListing(l), nil)
}

// Edit saves the edit form.
func (h *OwnerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, myListingsPath)
		return
	}

	form := listingForm(r)
	_, err := h.Listings.Edit(r.Context(), id, caller(r), form)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Edit listing", editPath(id), form, verr.Errors)
	case err != nil:
		h.lifecycleError(w, r, err)
	default:
		httpx.SeeOther(w, r, myListingsPath)
	}
}

// Delete removes the listing and its image.
func (h *OwnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.SeeOther(w, r, myListingsPath)
		return
	}

	if err := h.Listings.Delete(r.Context(), id, caller(r)); err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	httpx.SeeOther(w, r, myListingsPath)
}

// lifecycleError sends NotFound, Forbidden and AlreadyPublished back to
// the owner's list; anything else is a server error.
func (h *OwnerHandler) lifecycleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAlreadyPublished):
		httpx.SeeOther(w, r, myListingsPath)
	default:
		serverError(w, r, err)
	}
}

func (h *OwnerHandler) renderForm(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	title, action string,
	form service.ListingForm,
	errs []service.FieldError,
) {
	cats, bands, err := h.Catalog.Options(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}

	submit := "Save changes"
	if action == "/listings/new" {
		submit = "Continue to image"
	}

	render(w, r, status, pageListingForm, view{
		Title:  title,
		Errors: errs,
		Data: formData{
			Action:     action,
			Submit:     submit,
			Form:       form,
			Categories: cats,
			PriceBands: bands,
		},
	})
}

func listingForm(r *http.Request) service.ListingForm {
	return service.ListingForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Rooms:       r.PostFormValue("rooms"),
		Parking:     r.PostFormValue("parking"),
		Bathrooms:   r.PostFormValue("bathrooms"),
		Street:      r.PostFormValue("street"),
		Lat:         r.PostFormValue("lat"),
		Lng:         r.PostFormValue("lng"),
		CategoryID:  r.PostFormValue("category_id"),
		PriceBandID: r.PostFormValue("price_band_id"),
	}
}

func editPath(id int64) string {
	return fmt.Sprintf("/listings/%d/edit", id)
}
