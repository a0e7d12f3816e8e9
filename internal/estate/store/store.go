package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports that a conditional update matched no row because
	// another writer changed it first.
	ErrConflict = errors.New("store: conflicting update")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a transaction can only be started from the root.
type Store interface {
	Users() Users
	Categories() Categories
	PriceBands() PriceBands
	Listings() Listings

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise. Inside fn use the tx argument, never the
	// outer store: the sqlite driver holds a single connection.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u and returns it with its assigned ID. A duplicate
	// email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// SetToken replaces the user's one-time token fingerprint and purpose.
	SetToken(ctx context.Context, userID int64, hash string, purpose domain.TokenPurpose) error

	// GetUserByToken finds the user holding a token fingerprint for purpose.
	GetUserByToken(ctx context.Context, hash string, purpose domain.TokenPurpose) (domain.User, error)

	// ConfirmUser marks the holder of a confirm token as confirmed and
	// clears the token. ErrNotFound when no user holds it.
	ConfirmUser(ctx context.Context, hash string) (domain.User, error)

	// ResetPassword stores a new password hash for the holder of a reset
	// token and clears the token. ErrNotFound when no user holds it.
	ResetPassword(ctx context.Context, hash string, passwordHash string) (domain.User, error)
}

type Categories interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	DeleteAllCategories(ctx context.Context) error
}

type PriceBands interface {
	ListPriceBands(ctx context.Context) ([]domain.PriceBand, error)
	GetPriceBandByID(ctx context.Context, id int64) (domain.PriceBand, error)
	CreatePriceBand(ctx context.Context, name string) (domain.PriceBand, error)
	DeleteAllPriceBands(ctx context.Context) error
}

// ListingFilter narrows ListListings. Zero values mean "no constraint".
type ListingFilter struct {
	OwnerID    int64
	CategoryID int64

	// TitleContains matches a substring of the title. Case folding follows
	// the database's LOWER: SQLite folds ASCII letters only, Postgres folds
	// by the database collation.
	// LIKE wildcards in the term are matched literally.
	TitleContains string

	PublishedOnly bool
	NewestFirst   bool
	Limit         int
}

type Listings interface {
	// CreateListing inserts l as a draft (no image, unpublished) and
	// returns it with its assigned ID.
	CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error)

	GetListingByID(ctx context.Context, id int64) (domain.Listing, error)
	GetListingDetail(ctx context.Context, id int64) (domain.ListingDetail, error)
	ListListings(ctx context.Context, f ListingFilter) ([]domain.ListingDetail, error)

	// UpdateListingFields overwrites the editable fields. Owner, image and
	// publish state are never touched.
	UpdateListingFields(ctx context.Context, id int64, f domain.ListingFields) (domain.Listing, error)

	// PublishListing sets the image and publishes in one conditional
	// update. ErrConflict when the listing was already published,
	// ErrNotFound when it does not exist.
	PublishListing(ctx context.Context, id int64, image string) (domain.Listing, error)

	DeleteListing(ctx context.Context, id int64) error

	// ListImages returns every image name referenced by a listing.
	ListImages(ctx context.Context) ([]string, error)
}
