package service

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
)

// FieldError is one message attached to a form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects everything wrong with a submitted form so it
// can be re-rendered with messages. Messages keep submission order.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Has reports whether field has at least one message.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Err returns e, or nil when nothing was added.
func (e *ValidationError) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ListingForm is the raw create/edit form as submitted.
type ListingForm struct {
	Title       string
	Description string
	Rooms       string
	Parking     string
	Bathrooms   string
	Street      string
	Lat         string
	Lng         string
	CategoryID  string
	PriceBandID string
}

// FormFromListing fills a form with a listing's current values, for the
// edit page.
func FormFromListing(l domain.Listing) ListingForm {
	return ListingForm{
		Title:       l.Title,
		Description: l.Description,
		Rooms:       strconv.Itoa(l.Rooms),
		Parking:     strconv.Itoa(l.Parking),
		Bathrooms:   strconv.Itoa(l.Bathrooms),
		Street:      l.Street,
		Lat:         strconv.FormatFloat(l.Lat, 'f', -1, 64),
		Lng:         strconv.FormatFloat(l.Lng, 'f', -1, 64),
		CategoryID:  domain.FormatID(l.CategoryID),
		PriceBandID: domain.FormatID(l.PriceBandID),
	}
}

// ParseListingForm checks presence and shape of every field. Catalog
// references are only checked for form; existence is checked against the
// store by the service.
func ParseListingForm(f ListingForm) (domain.ListingFields, error) {
	verr := &ValidationError{}
	var out domain.ListingFields

	out.Title = required(verr, "title", f.Title, "Title is required")
	out.Description = required(verr, "description", f.Description, "Description is required")
	out.Street = required(verr, "street", f.Street, "Locate the property on the map")

	out.Rooms = count(verr, "rooms", f.Rooms, "Select the number of rooms")
	out.Parking = count(verr, "parking", f.Parking, "Select the number of parking spaces")
	out.Bathrooms = count(verr, "bathrooms", f.Bathrooms, "Select the number of bathrooms")

	lat, latOK := coordinate(f.Lat, 90)
	lng, lngOK := coordinate(f.Lng, 180)
	if !latOK || !lngOK {
		verr.Add("location", "Locate the property on the map")
	}
	out.Lat, out.Lng = lat, lng

	out.CategoryID = reference(verr, "category", f.CategoryID, "Select a category")
	out.PriceBandID = reference(verr, "price_band", f.PriceBandID, "Select a price range")

	return out, verr.Err()
}

func required(verr *ValidationError, field, value, msg string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		verr.Add(field, msg)
	}
	return value
}

func count(verr *ValidationError, field, value, msg string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		verr.Add(field, msg)
		return 0
	}
	return n
}

func coordinate(value string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

func reference(verr *ValidationError, field, value, msg string) int64 {
	id, ok := domain.ParseID(strings.TrimSpace(value))
	if !ok {
		verr.Add(field, msg)
		return 0
	}
	return id
}

// RegisterForm is the sign-up form as submitted.
type RegisterForm struct {
	Name           string
	Email          string
	Password       string
	RepeatPassword string
}

// MinPasswordLength applies to registration and password reset.
const MinPasswordLength = 6

func (f RegisterForm) validate() error {
	verr := &ValidationError{}
	required(verr, "name", f.Name, "Name is required")
	if !validEmail(f.Email) {
		verr.Add("email", "That does not look like an email")
	}
	checkPassword(verr, f.Password)
	if f.RepeatPassword != f.Password {
		verr.Add("repeat_password", "Passwords do not match")
	}
	return verr.Err()
}

func checkPassword(verr *ValidationError, password string) {
	if len(password) < MinPasswordLength {
		verr.Add("password", "Password must be at least 6 characters")
	}
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
