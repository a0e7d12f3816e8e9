package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/assets"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/pkg/httpx"
	"github.com/aussiebroadwan/estate/pkg/slogx"

	_ "github.com/aussiebroadwan/estate/api/estate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

const loginPath = "/auth/login"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store  store.Store
	assets assets.Store

	ListingService *service.ListingService
	CatalogService *service.CatalogService
	AccountService *service.AccountService

	SessionTTL     time.Duration
	SecureCookie   bool
	MaxUploadBytes int64
}

func NewRouter(
	buildVersion string,
	st store.Store,
	as assets.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		assets:       as,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		http.NewCrossOriginProtection().Handler,
	}

	return r
}

// ApplyRoutes registers every route. The services must be set first.
func (r *Router) ApplyRoutes() {
	r.middlewares = append(r.middlewares, IdentityMiddleware(r.AccountService))

	r.registerBrowse()
	r.registerOwner()
	r.registerAccounts()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Estate Listings API
//	@version		0.1.0
//	@description	Read API of the estate listings site. The site itself is server-rendered HTML; this API feeds the map of published properties.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/estate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerBrowse() {
	h := &BrowseHandler{
		Listings: r.ListingService,
		Catalog:  r.CatalogService,
	}
	public := httpx.RateLimitByIP(httpx.PublicLimit, httpx.WithLimitHandler(http.HandlerFunc(tooManyRequests)))

	r.Mux.Handle("GET /{$}", httpx.Chain(http.HandlerFunc(h.Home), public))
	r.Mux.Handle("GET /categories/{id}", httpx.Chain(http.HandlerFunc(h.Category), public))
	r.Mux.Handle("POST /search", httpx.Chain(http.HandlerFunc(h.Search), public))
	r.Mux.Handle("GET /listings/{id}", httpx.Chain(http.HandlerFunc(h.Show), public))
	r.Mux.Handle("GET /uploads/{name}", httpx.Chain(UploadsHandler(r.assets), public))
	r.Mux.HandleFunc("GET /404", h.NotFound)

	// Anything unmatched
	r.Mux.HandleFunc("/", h.NotFound)
}

func (r *Router) registerOwner() {
	h := &OwnerHandler{
		Listings:       r.ListingService,
		Catalog:        r.CatalogService,
		MaxUploadBytes: r.MaxUploadBytes,
	}
	signedIn := httpx.RequireUser(loginPath)

	// POSTs - moderate rate limit per owner
	mutate := httpx.RateLimitByUser(httpx.ModerateLimit, httpx.WithLimitHandler(http.HandlerFunc(tooManyRequests)))

	r.Mux.Handle("GET /my-listings", httpx.Chain(http.HandlerFunc(h.MyListings), signedIn))
	r.Mux.Handle("GET /listings/new", httpx.Chain(http.HandlerFunc(h.NewForm), signedIn))
	r.Mux.Handle("POST /listings/new", httpx.Chain(http.HandlerFunc(h.Create), signedIn, mutate))
	r.Mux.Handle("GET /listings/{id}/image", httpx.Chain(http.HandlerFunc(h.ImageForm), signedIn))
	r.Mux.Handle("POST /listings/{id}/image", httpx.Chain(http.HandlerFunc(h.AttachImage), signedIn, mutate))
	r.Mux.Handle("GET /listings/{id}/edit", httpx.Chain(http.HandlerFunc(h.EditForm), signedIn))
	r.Mux.Handle("POST /listings/{id}/edit", httpx.Chain(http.HandlerFunc(h.Edit), signedIn, mutate))
	r.Mux.Handle("POST /listings/{id}/delete", httpx.Chain(http.HandlerFunc(h.Delete), signedIn, mutate))
}

func (r *Router) registerAccounts() {
	h := &AccountHandler{
		Accounts:     r.AccountService,
		SessionTTL:   r.SessionTTL,
		SecureCookie: r.SecureCookie,
	}
	limited := httpx.WithLimitHandler(http.HandlerFunc(tooManyRequests))

	r.Mux.HandleFunc("GET /auth/login", h.LoginForm)
	r.Mux.HandleFunc("GET /auth/register", h.RegisterForm)
	r.Mux.HandleFunc("GET /auth/confirm/{token}", h.Confirm)
	r.Mux.HandleFunc("GET /auth/forgot-password", h.ForgotPasswordForm)
	r.Mux.HandleFunc("GET /auth/forgot-password/{token}", h.ResetPasswordForm)
	r.Mux.HandleFunc("POST /auth/logout", h.Logout)

	// Credential forms - strict rate limit by IP + email to slow down guessing
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.Login), httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email", limited)),
	)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.Register), httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email", limited)),
	)
	r.Mux.Handle("POST /auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.ForgotPassword), httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email", limited)),
	)
	r.Mux.Handle("POST /auth/forgot-password/{token}",
		httpx.Chain(http.HandlerFunc(h.ResetPassword), httpx.RateLimitByIP(httpx.StrictLimit, limited)),
	)
}

func (r *Router) registerAPI() {
	r.Mux.Handle("GET /api/listings",
		httpx.Chain(&ListingsAPIHandler{Listings: r.ListingService},
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.assets),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	renderMessage(w, r, http.StatusTooManyRequests, "Slow down", message{
		Text: "Too many attempts. Wait a moment and try again.",
	})
}
