package estatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	ErrorCodeServerError = "server_error"
	ErrorCodeNotFound    = "not_found"
)

// Error is a non-success answer from the service. The server writes it as
// JSON on the API routes; the SDK also returns it for unexpected statuses
// on HTML routes, where only StatusCode and Location are meaningful.
type Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`

	// Location is the redirect target of a 3xx answer.
	Location string `json:"-"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("estate: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("estate: %s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON response.
func (e *Error) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: e.Code, Description: e.Description})
}

var (
	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "the server encountered an unexpected condition",
	}
)

// parseErrorResponse builds an *Error from a non-success response.
func parseErrorResponse(resp *http.Response, body []byte) error {
	e := &Error{StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}

	var payload ErrorResponse
	if json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Error
		e.Description = payload.Description
	}
	return e
}
