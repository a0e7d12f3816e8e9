package http

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/assets"
	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/mailer"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/internal/estate/store/drivers/sqlite"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/jwtx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "estate-http")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

const (
	testSecret = "palabra-super-secreta-para-pruebas"
	testIssuer = "estate-test"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type testServer struct {
	router *Router
	store  store.Store
	assets *assets.Filesystem
	mail   *recordingMailer
	signer jwtx.Signer

	listings *service.ListingService

	owner    domain.Identity
	stranger domain.Identity

	category  domain.Category
	priceBand domain.PriceBand
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	fs, err := assets.NewFilesystem(t.TempDir())
	require.NoError(t, err)

	signer, err := jwtx.NewSignerHS256([]byte(testSecret))
	require.NoError(t, err)

	owner, err := st.Users().CreateUser(ctx, domain.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x", Confirmed: true})
	require.NoError(t, err)
	stranger, err := st.Users().CreateUser(ctx, domain.User{Name: "Stranger", Email: "stranger@example.com", PasswordHash: "x", Confirmed: true})
	require.NoError(t, err)

	cat, err := st.Categories().CreateCategory(ctx, "House")
	require.NoError(t, err)
	band, err := st.PriceBands().CreatePriceBand(ctx, "0 - $10,000 USD")
	require.NoError(t, err)

	mail := &recordingMailer{}
	listings := &service.ListingService{Store: st, Assets: fs}

	r := NewRouter("test", st, fs, slogx.Discard())
	r.ListingService = listings
	r.CatalogService = &service.CatalogService{Store: st}
	r.AccountService = &service.AccountService{
		Store:      st,
		Mailer:     mail,
		Signer:     signer,
		Verifier:   jwtx.NewVerifierHS256([]byte(testSecret), testIssuer, time.Second),
		Issuer:     testIssuer,
		SessionTTL: time.Hour,
		BaseURL:    "http://estate.test",
	}
	r.SessionTTL = time.Hour
	r.ApplyRoutes()

	return &testServer{
		router:    r,
		store:     st,
		assets:    fs,
		mail:      mail,
		signer:    signer,
		listings:  listings,
		owner:     owner.Identity(),
		stranger:  stranger.Identity(),
		category:  cat,
		priceBand: band,
	}
}

// sessionFor signs a session token for id without going through login.
func (s *testServer) sessionFor(t *testing.T, id domain.Identity) *http.Cookie {
	t.Helper()
	token, err := s.signer.Sign(jwtx.NewSessionClaims(id.Subject(), id.Name, testIssuer, time.Hour, time.Now()))
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func (s *testServer) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func (s *testServer) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	return s.do(newFormRequest(path, form), cookie)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (s *testServer) postImage(t *testing.T, path string, data []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "front.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, cookie)
}

func (s *testServer) form(title string) url.Values {
	return url.Values{
		"title":         {title},
		"description":   {"Nice place"},
		"rooms":         {"3"},
		"parking":       {"1"},
		"bathrooms":     {"2"},
		"street":        {"Main St 1"},
		"lat":           {"19.43"},
		"lng":           {"-99.13"},
		"category_id":   {domain.FormatID(s.category.ID)},
		"price_band_id": {domain.FormatID(s.priceBand.ID)},
	}
}

// draft creates a listing for owner directly through the service.
func (s *testServer) draft(t *testing.T, owner domain.Identity, title string) domain.Listing {
	t.Helper()
	l, err := s.listings.Create(context.Background(), owner, service.ListingForm{
		Title:       title,
		Description: "Nice place",
		Rooms:       "3",
		Parking:     "1",
		Bathrooms:   "2",
		Street:      "Main St 1",
		Lat:         "19.43",
		Lng:         "-99.13",
		CategoryID:  domain.FormatID(s.category.ID),
		PriceBandID: domain.FormatID(s.priceBand.ID),
	})
	require.NoError(t, err)
	return l
}

// published creates a listing for owner and attaches an image.
func (s *testServer) published(t *testing.T, owner domain.Identity, title string) domain.Listing {
	t.Helper()
	l := s.draft(t, owner, title)
	l, err := s.listings.AttachImage(context.Background(), l.ID, owner, service.Upload{Filename: "front.png", Data: pngImage})
	require.NoError(t, err)
	return l
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, target string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, target, rec.Header().Get("Location"))
}

// recordingMailer keeps every message and can be told to fail.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail bool
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// linkToken returns the token of the last mailed link under prefix.
func (m *recordingMailer) linkToken(t *testing.T, prefix string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)

	body := m.sent[len(m.sent)-1].Body
	i := strings.Index(body, prefix)
	require.GreaterOrEqual(t, i, 0, "link %q not found in %q", prefix, body)
	rest := body[i+len(prefix):]
	if j := strings.IndexAny(rest, " \r\n"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
