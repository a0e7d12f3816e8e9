package estatesdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
)

// Session is a signed-in client. It holds the session cookie and submits
// the owner forms.
//
// Owner routes redirect to /my-listings both on success and when the
// listing is missing, foreign or already published, so callers confirm
// the outcome through ListListings.
type Session struct {
	client *SDKClient
	http   *http.Client
}

// Login signs in with email and password.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		client: c,
		http: &http.Client{
			Timeout: c.HTTPClient.Timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	if _, err := s.postForm(ctx, "/auth/login", url.Values{
		"email":    {email},
		"password": {password},
	}); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s, nil
}

// Logout ends the session on the server and drops the cookie.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.postForm(ctx, "/auth/logout", url.Values{})
	return err
}

// CreateListing submits the new listing form and returns the draft's ID.
func (s *Session) CreateListing(ctx context.Context, form ListingForm) (int64, error) {
	location, err := s.postForm(ctx, "/listings/new", form.values())
	if err != nil {
		return 0, err
	}

	// Location is /listings/{id}/image
	parts := strings.Split(strings.Trim(location, "/"), "/")
	if len(parts) != 3 || parts[0] != "listings" || parts[2] != "image" {
		return 0, fmt.Errorf("unexpected redirect %q", location)
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

// EditListing submits the edit form of listing id.
func (s *Session) EditListing(ctx context.Context, id int64, form ListingForm) error {
	_, err := s.postForm(ctx, fmt.Sprintf("/listings/%d/edit", id), form.values())
	return err
}

// AttachImage uploads the image that publishes listing id.
func (s *Session) AttachImage(ctx context.Context, id int64, filename string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	_, err = s.post(ctx, fmt.Sprintf("/listings/%d/image", id), &body, mw.FormDataContentType())
	return err
}

// DeleteListing deletes listing id and its image.
func (s *Session) DeleteListing(ctx context.Context, id int64) error {
	_, err := s.postForm(ctx, fmt.Sprintf("/listings/%d/delete", id), url.Values{})
	return err
}

func (s *Session) postForm(ctx context.Context, path string, form url.Values) (string, error) {
	return s.post(ctx, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (s *Session) post(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	resp, err := send(ctx, s.http, http.MethodPost, s.client.url(path), body, map[string]string{
		"Content-Type": contentType,
	})
	if err != nil {
		return "", err
	}
	return expectRedirect(resp)
}

func (f ListingForm) values() url.Values {
	return url.Values{
		"title":         {f.Title},
		"description":   {f.Description},
		"rooms":         {f.Rooms},
		"parking":       {f.Parking},
		"bathrooms":     {f.Bathrooms},
		"street":        {f.Street},
		"lat":           {f.Lat},
		"lng":           {f.Lng},
		"category_id":   {f.CategoryID},
		"price_band_id": {f.PriceBandID},
	}
}
