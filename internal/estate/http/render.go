package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/pkg/httpx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names, one per file under templates/ besides the layout.
const (
	pageHome           = "home.html"
	pageListings       = "listings.html"
	pageShow           = "show.html"
	pageNotFound       = "not_found.html"
	pageError          = "error.html"
	pageMyListings     = "my_listings.html"
	pageListingForm    = "listing_form.html"
	pageListingImage   = "listing_image.html"
	pageLogin          = "login.html"
	pageRegister       = "register.html"
	pageForgotPassword = "forgot_password.html"
	pageResetPassword  = "reset_password.html"
	pageMessage        = "message.html"
)

var pages = mustParsePages(
	pageHome, pageListings, pageShow, pageNotFound, pageError,
	pageMyListings, pageListingForm, pageListingImage,
	pageLogin, pageRegister, pageForgotPassword, pageResetPassword, pageMessage,
)

var templateFuncs = template.FuncMap{
	"markdown": renderMarkdown,
	"date": func(t time.Time) string {
		return t.Format("Monday, January 2, 2006")
	},
}

func mustParsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(
			template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name),
		)
	}
	return out
}

// view is what every page template receives.
type view struct {
	Title  string
	User   *domain.Identity
	Errors []service.FieldError
	Data   any
}

// message is the Data of the message page.
type message struct {
	Text     string
	Link     string
	LinkText string
}

// render executes a page into a buffer first so a template error still
// yields a clean 500.
func render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	if id, ok := IdentityFromContext(r.Context()); ok {
		v.User = &id
	}

	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", v); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page",
			slog.String("page", page),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderMessage shows a standalone notice, optionally with one link.
func renderMessage(w http.ResponseWriter, r *http.Request, status int, title string, msg message) {
	render(w, r, status, pageMessage, view{Title: title, Data: msg})
}

// renderInvalid re-renders a form with the messages of a validation error.
func renderInvalid(w http.ResponseWriter, r *http.Request, page string, v view, verr *service.ValidationError) {
	v.Errors = verr.Errors
	render(w, r, http.StatusUnprocessableEntity, page, v)
}

// serverError logs err and shows the error page.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	render(w, r, http.StatusInternalServerError, pageError, view{Title: "Something went wrong"})
}

// fieldError builds a single-message form error.
func fieldError(field, msg string) []service.FieldError {
	return []service.FieldError{{Field: field, Message: msg}}
}

func pathID(r *http.Request) (int64, bool) {
	return domain.ParseID(r.PathValue("id"))
}
