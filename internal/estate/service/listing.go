package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/estate/internal/estate/assets"
	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrForbidden        = errors.New("listing belongs to another user")
	ErrAlreadyPublished = errors.New("listing is already published")
	ErrEmptySearch      = errors.New("empty search term")
)

// DefaultMaxUploadBytes caps listing images at 5 MiB.
const DefaultMaxUploadBytes int64 = 5 << 20

// Upload is an image submitted for a listing, fully read into memory.
type Upload struct {
	Filename string
	Data     []byte
}

// ListingService owns the listing lifecycle: a listing is created as a
// draft, published once by attaching an image, and edited or deleted only
// by its owner.
type ListingService struct {
	Store  store.Store
	Assets assets.Store

	// PublishedOnly hides drafts from public browsing, search and the API.
	PublishedOnly bool

	MaxUploadBytes int64
}

// Create validates the form and stores a draft owned by owner.
func (s *ListingService) Create(ctx context.Context, owner domain.Identity, form ListingForm) (domain.Listing, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate form and catalog references
	fields, err := s.parseForm(ctx, form)
	if err != nil {
		return domain.Listing{}, err
	}

	// 2. Store the draft
	l := domain.Listing{OwnerID: owner.ID}
	fields.Apply(&l)

	l, err = s.Store.Listings().CreateListing(ctx, l)
	if err != nil {
		log.Error("failed to create listing", slog.Int64("owner_id", owner.ID), slog.Any("error", err))
		return domain.Listing{}, err
	}

	log.Info("listing created",
		slog.Int64("listing_id", l.ID),
		slog.Int64("owner_id", owner.ID),
	)
	return l, nil
}

// AwaitingImage returns the listing when requester may attach its image.
// Checks run in the order NotFound, AlreadyPublished, Forbidden.
func (s *ListingService) AwaitingImage(ctx context.Context, id int64, requester domain.Identity) (domain.Listing, error) {
	l, err := s.get(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if l.Published {
		return domain.Listing{}, ErrAlreadyPublished
	}
	if !l.OwnedBy(requester) {
		return domain.Listing{}, ErrForbidden
	}
	return l, nil
}

// AttachImage stores the upload and publishes the listing. Publishing is a
// conditional update, so of two concurrent attaches exactly one wins; the
// loser's asset is removed and it gets ErrAlreadyPublished.
func (s *ListingService) AttachImage(ctx context.Context, id int64, requester domain.Identity, up Upload) (domain.Listing, error) {
	log := slogx.FromContext(ctx).With(slog.Int64("listing_id", id))

	// 1. Lifecycle and ownership checks
	l, err := s.AwaitingImage(ctx, id, requester)
	if err != nil {
		return domain.Listing{}, err
	}

	// 2. Validate the upload
	ext, err := s.checkUpload(up)
	if err != nil {
		return domain.Listing{}, err
	}

	// 3. Store the asset
	name := assets.Name(l.ID, up.Data, ext)
	if err := s.Assets.Save(ctx, name, bytes.NewReader(up.Data)); err != nil {
		log.Error("failed to store listing image", slog.String("image", name), slog.Any("error", err))
		return domain.Listing{}, fmt.Errorf("store image: %w", err)
	}

	// 4. Publish, only if still a draft
	published, err := s.Store.Listings().PublishListing(ctx, l.ID, name)
	if err == nil {
		log.Info("listing published", slog.String("image", name))
		return published, nil
	}

	s.discardAsset(ctx, l.ID, name)

	switch {
	case errors.Is(err, store.ErrConflict):
		log.Warn("listing published concurrently")
		return domain.Listing{}, ErrAlreadyPublished
	case errors.Is(err, store.ErrNotFound):
		return domain.Listing{}, ErrListingNotFound
	default:
		log.Error("failed to publish listing", slog.Any("error", err))
		return domain.Listing{}, err
	}
}

// discardAsset removes an asset that lost the publish, unless the winner
// stored identical content under the same name.
func (s *ListingService) discardAsset(ctx context.Context, listingID int64, name string) {
	if current, err := s.Store.Listings().GetListingByID(ctx, listingID); err == nil && current.Image == name {
		return
	}
	if err := s.Assets.Remove(ctx, name); err != nil && !errors.Is(err, assets.ErrNotFound) {
		slogx.FromContext(ctx).Error("failed to remove unused listing image",
			slog.Int64("listing_id", listingID),
			slog.String("image", name),
			slog.Any("error", err),
		)
	}
}

func (s *ListingService) checkUpload(up Upload) (string, error) {
	verr := &ValidationError{}

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}

	if len(up.Data) == 0 {
		verr.Add("image", "Select an image")
		return "", verr
	}
	if int64(len(up.Data)) > limit {
		verr.Add("image", fmt.Sprintf("The image must be at most %d MB", limit>>20))
		return "", verr
	}

	_, ext, ok := assets.DetectImage(up.Data)
	if !ok {
		verr.Add("image", "Only JPEG, PNG or WebP images are allowed")
		return "", verr
	}
	return ext, nil
}

// Editable returns the listing when requester may edit or delete it.
func (s *ListingService) Editable(ctx context.Context, id int64, requester domain.Identity) (domain.Listing, error) {
	l, err := s.get(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if !l.OwnedBy(requester) {
		return domain.Listing{}, ErrForbidden
	}
	return l, nil
}

// Edit overwrites the descriptive fields, category and price band. Owner,
// image and publish state never change.
func (s *ListingService) Edit(ctx context.Context, id int64, requester domain.Identity, form ListingForm) (domain.Listing, error) {
	log := slogx.FromContext(ctx).With(slog.Int64("listing_id", id))

	// 1. Existence and ownership
	if _, err := s.Editable(ctx, id, requester); err != nil {
		return domain.Listing{}, err
	}

	// 2. Validate form and catalog references
	fields, err := s.parseForm(ctx, form)
	if err != nil {
		return domain.Listing{}, err
	}

	// 3. Persist
	l, err := s.Store.Listings().UpdateListingFields(ctx, id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Listing{}, ErrListingNotFound
	}
	if err != nil {
		log.Error("failed to update listing", slog.Any("error", err))
		return domain.Listing{}, err
	}

	log.Info("listing updated")
	return l, nil
}

// Delete removes the listing's image, then the listing. Failing to remove
// the image is logged and does not stop the delete; housekeeping sweeps
// the orphan later.
func (s *ListingService) Delete(ctx context.Context, id int64, requester domain.Identity) error {
	log := slogx.FromContext(ctx).With(slog.Int64("listing_id", id))

	// 1. Existence and ownership
	l, err := s.Editable(ctx, id, requester)
	if err != nil {
		return err
	}

	// 2. Remove the stored image, if any
	if l.Image != "" {
		if err := s.Assets.Remove(ctx, l.Image); err != nil && !errors.Is(err, assets.ErrNotFound) {
			log.Error("failed to remove listing image",
				slog.String("image", l.Image),
				slog.Any("error", err),
			)
		}
	}

	// 3. Remove the record
	err = s.Store.Listings().DeleteListing(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrListingNotFound
	}
	if err != nil {
		log.Error("failed to delete listing", slog.Any("error", err))
		return err
	}

	log.Info("listing deleted")
	return nil
}

// Show returns a listing with its category and price band for the public
// page. viewer is the zero Identity for anonymous callers; the owner can
// always see their own draft.
func (s *ListingService) Show(ctx context.Context, id int64, viewer domain.Identity) (domain.ListingDetail, error) {
	d, err := s.Store.Listings().GetListingDetail(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ListingDetail{}, ErrListingNotFound
	}
	if err != nil {
		return domain.ListingDetail{}, err
	}
	if s.PublishedOnly && !d.IsLive() && !d.OwnedBy(viewer) {
		return domain.ListingDetail{}, ErrListingNotFound
	}
	return d, nil
}

// ListMine returns every listing owned by owner, drafts included.
func (s *ListingService) ListMine(ctx context.Context, owner domain.Identity) ([]domain.ListingDetail, error) {
	return s.Store.Listings().ListListings(ctx, store.ListingFilter{OwnerID: owner.ID})
}

// Search matches term as a substring of listing titles, ignoring case as
// far as the database's LOWER folds it.
// A blank term is rejected without querying.
func (s *ListingService) Search(ctx context.Context, term string) ([]domain.ListingDetail, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearch
	}
	return s.Store.Listings().ListListings(ctx, store.ListingFilter{
		TitleContains: term,
		PublishedOnly: s.PublishedOnly,
	})
}

// ListByCategory returns the category and its listings.
func (s *ListingService) ListByCategory(ctx context.Context, categoryID int64) (domain.Category, []domain.ListingDetail, error) {
	cat, err := s.Store.Categories().GetCategoryByID(ctx, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Category{}, nil, ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, nil, err
	}

	listings, err := s.Store.Listings().ListListings(ctx, store.ListingFilter{
		CategoryID:    categoryID,
		PublishedOnly: s.PublishedOnly,
	})
	if err != nil {
		return domain.Category{}, nil, err
	}
	return cat, listings, nil
}

// Latest returns up to limit of the newest listings in a category.
func (s *ListingService) Latest(ctx context.Context, categoryID int64, limit int) ([]domain.ListingDetail, error) {
	return s.Store.Listings().ListListings(ctx, store.ListingFilter{
		CategoryID:    categoryID,
		PublishedOnly: s.PublishedOnly,
		NewestFirst:   true,
		Limit:         limit,
	})
}

// ListAll returns every listing for the map API.
func (s *ListingService) ListAll(ctx context.Context) ([]domain.ListingDetail, error) {
	return s.Store.Listings().ListListings(ctx, store.ListingFilter{PublishedOnly: s.PublishedOnly})
}

func (s *ListingService) get(ctx context.Context, id int64) (domain.Listing, error) {
	l, err := s.Store.Listings().GetListingByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Listing{}, ErrListingNotFound
	}
	return l, err
}

// parseForm validates the form and that its category and price band exist.
func (s *ListingService) parseForm(ctx context.Context, form ListingForm) (domain.ListingFields, error) {
	fields, err := ParseListingForm(form)

	var verr *ValidationError
	if err != nil && !errors.As(err, &verr) {
		return domain.ListingFields{}, err
	}
	if verr == nil {
		verr = &ValidationError{}
	}

	if fields.CategoryID != 0 {
		if _, err := s.Store.Categories().GetCategoryByID(ctx, fields.CategoryID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return domain.ListingFields{}, err
			}
			verr.Add("category", "Select a category")
		}
	}
	if fields.PriceBandID != 0 {
		if _, err := s.Store.PriceBands().GetPriceBandByID(ctx, fields.PriceBandID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return domain.ListingFields{}, err
			}
			verr.Add("price_band", "Select a price range")
		}
	}

	if err := verr.Err(); err != nil {
		return domain.ListingFields{}, err
	}
	return fields, nil
}
