package estatesdk

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains the status of dependencies, only set by /readyz
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Assets indicates whether the image backend is reachable
	Assets string `json:"assets"`
}

// Ref is a catalog entry nested in a listing.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Listing is one entry of GET /api/listings.
type Listing struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Category  Ref     `json:"category"`
	PriceBand Ref     `json:"price_band"`
}

// ListingForm carries the fields of the create and edit forms. Values are
// sent as typed by a user, so validation happens on the server.
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

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}
