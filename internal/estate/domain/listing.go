package domain

import "time"

// Listing is a property advertised for sale. A listing is created as a
// draft without an image and becomes published when its image is attached.
type Listing struct {
	ID          int64
	Title       string
	Description string
	Rooms       int
	Parking     int
	Bathrooms   int
	Street      string
	Lat         float64
	Lng         float64
	Image       string
	Published   bool

	OwnerID     int64
	CategoryID  int64
	PriceBandID int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLive reports whether the listing completed the publish gate.
func (l Listing) IsLive() bool {
	return l.Published && l.Image != ""
}

// OwnedBy compares ownership on the normalized string form of both IDs.
func (l Listing) OwnedBy(who Identity) bool {
	return FormatID(l.OwnerID) == who.Subject()
}

// ListingFields are the owner-editable parts of a listing.
type ListingFields struct {
	Title       string
	Description string
	Rooms       int
	Parking     int
	Bathrooms   int
	Street      string
	Lat         float64
	Lng         float64
	CategoryID  int64
	PriceBandID int64
}

// Apply copies the editable fields onto l.
func (f ListingFields) Apply(l *Listing) {
	l.Title = f.Title
	l.Description = f.Description
	l.Rooms = f.Rooms
	l.Parking = f.Parking
	l.Bathrooms = f.Bathrooms
	l.Street = f.Street
	l.Lat = f.Lat
	l.Lng = f.Lng
	l.CategoryID = f.CategoryID
	l.PriceBandID = f.PriceBandID
}

// ListingDetail is a listing joined with its category and price band.
type ListingDetail struct {
	Listing
	Category  Category
	PriceBand PriceBand
}
