package sqldb

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/jmoiron/sqlx"
)

const listingColumns = `l.id, l.title, l.description, l.rooms, l.parking, l.bathrooms, l.street,
	l.lat, l.lng, l.image, l.published, l.owner_id, l.category_id, l.price_band_id,
	l.created_at, l.updated_at`

const detailSelect = `SELECT ` + listingColumns + `, c.name AS category_name, p.name AS price_band_name
	FROM listings l
	JOIN categories c ON c.id = l.category_id
	JOIN price_bands p ON p.id = l.price_band_id`

type listingRow struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Rooms       int       `db:"rooms"`
	Parking     int       `db:"parking"`
	Bathrooms   int       `db:"bathrooms"`
	Street      string    `db:"street"`
	Lat         float64   `db:"lat"`
	Lng         float64   `db:"lng"`
	Image       string    `db:"image"`
	Published   bool      `db:"published"`
	OwnerID     int64     `db:"owner_id"`
	CategoryID  int64     `db:"category_id"`
	PriceBandID int64     `db:"price_band_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type detailRow struct {
	listingRow
	CategoryName  string `db:"category_name"`
	PriceBandName string `db:"price_band_name"`
}

func mapListing(r listingRow) domain.Listing {
	return domain.Listing{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Rooms:       r.Rooms,
		Parking:     r.Parking,
		Bathrooms:   r.Bathrooms,
		Street:      r.Street,
		Lat:         r.Lat,
		Lng:         r.Lng,
		Image:       r.Image,
		Published:   r.Published,
		OwnerID:     r.OwnerID,
		CategoryID:  r.CategoryID,
		PriceBandID: r.PriceBandID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func mapDetail(r detailRow) domain.ListingDetail {
	return domain.ListingDetail{
		Listing:   mapListing(r.listingRow),
		Category:  domain.Category{ID: r.CategoryID, Name: r.CategoryName},
		PriceBand: domain.PriceBand{ID: r.PriceBandID, Name: r.PriceBandName},
	}
}

// escapeLike makes %, _ and \ match literally under ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type listingsRepo struct {
	q sqlx.ExtContext
}

func (r *listingsRepo) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	l.Image = ""
	l.Published = false
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt

	query := r.q.Rebind(`
		INSERT INTO listings (title, description, rooms, parking, bathrooms, street, lat, lng,
			image, published, owner_id, category_id, price_band_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := sqlx.GetContext(ctx, r.q, &l.ID, query,
		l.Title, l.Description, l.Rooms, l.Parking, l.Bathrooms, l.Street, l.Lat, l.Lng,
		l.Image, l.Published, l.OwnerID, l.CategoryID, l.PriceBandID, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

func (r *listingsRepo) GetListingByID(ctx context.Context, id int64) (domain.Listing, error) {
	var row listingRow
	query := r.q.Rebind(`SELECT ` + listingColumns + ` FROM listings l WHERE l.id = ?`)
	if err := sqlx.GetContext(ctx, r.q, &row, query, id); err != nil {
		return domain.Listing{}, mapNotFound(err)
	}
	return mapListing(row), nil
}

func (r *listingsRepo) GetListingDetail(ctx context.Context, id int64) (domain.ListingDetail, error) {
	var row detailRow
	query := r.q.Rebind(detailSelect + ` WHERE l.id = ?`)
	if err := sqlx.GetContext(ctx, r.q, &row, query, id); err != nil {
		return domain.ListingDetail{}, mapNotFound(err)
	}
	return mapDetail(row), nil
}

func (r *listingsRepo) ListListings(ctx context.Context, f store.ListingFilter) ([]domain.ListingDetail, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != 0 {
		where = append(where, `l.owner_id = ?`)
		args = append(args, f.OwnerID)
	}
	if f.CategoryID != 0 {
		where = append(where, `l.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.TitleContains != "" {
		// Both sides fold through the database's LOWER so they agree on
		// which letters have a case.
		where = append(where, `LOWER(l.title) LIKE LOWER(?) ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.TitleContains)+"%")
	}
	if f.PublishedOnly {
		where = append(where, `l.published = ? AND l.image <> ''`)
		args = append(args, true)
	}

	var sb strings.Builder
	sb.WriteString(detailSelect)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if f.NewestFirst {
		sb.WriteString(" ORDER BY l.created_at DESC, l.id DESC")
	} else {
		sb.WriteString(" ORDER BY l.id ASC")
	}
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	var rows []detailRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(sb.String()), args...); err != nil {
		return nil, err
	}

	out := make([]domain.ListingDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapDetail(row))
	}
	return out, nil
}

func (r *listingsRepo) UpdateListingFields(ctx context.Context, id int64, f domain.ListingFields) (domain.Listing, error) {
	query := r.q.Rebind(`
		UPDATE listings SET title = ?, description = ?, rooms = ?, parking = ?, bathrooms = ?,
			street = ?, lat = ?, lng = ?, category_id = ?, price_band_id = ?, updated_at = ?
		WHERE id = ?`)

	err := expectOne(r.q.ExecContext(ctx, query,
		f.Title, f.Description, f.Rooms, f.Parking, f.Bathrooms,
		f.Street, f.Lat, f.Lng, f.CategoryID, f.PriceBandID, now(), id,
	))
	if err != nil {
		return domain.Listing{}, err
	}
	return r.GetListingByID(ctx, id)
}

func (r *listingsRepo) PublishListing(ctx context.Context, id int64, image string) (domain.Listing, error) {
	query := r.q.Rebind(`UPDATE listings SET image = ?, published = ?, updated_at = ? WHERE id = ? AND published = ?`)

	err := expectOne(r.q.ExecContext(ctx, query, image, true, now(), id, false))
	if errors.Is(err, store.ErrNotFound) {
		// Zero rows: either the listing is gone or another request won.
		if _, getErr := r.GetListingByID(ctx, id); getErr != nil {
			return domain.Listing{}, getErr
		}
		return domain.Listing{}, store.ErrConflict
	}
	if err != nil {
		return domain.Listing{}, err
	}
	return r.GetListingByID(ctx, id)
}

func (r *listingsRepo) DeleteListing(ctx context.Context, id int64) error {
	query := r.q.Rebind(`DELETE FROM listings WHERE id = ?`)
	return expectOne(r.q.ExecContext(ctx, query, id))
}

func (r *listingsRepo) ListImages(ctx context.Context) ([]string, error) {
	var images []string
	err := sqlx.SelectContext(ctx, r.q, &images, `SELECT image FROM listings WHERE image <> ''`)
	return images, err
}
