package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/catalog/attributes"
	"github.com/storefront-labs/storefront/internal/catalog/categories"
	"github.com/storefront-labs/storefront/internal/catalog/products"
	"github.com/storefront-labs/storefront/internal/observability"
	"github.com/storefront-labs/storefront/internal/platform/httpx"
	"github.com/storefront-labs/storefront/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Auth             auth.Middleware
	ProductHandler   *products.Handler
	CategoryHandler  *categories.Handler
	AttributeHandler *attributes.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	ImagesDir        string
	ImagesURLPrefix  string
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.ProductHandler != nil {
		r.Route("/products", func(r chi.Router) {
			params.ProductHandler.MountRoutes(r, params.Auth)
		})
	}
	if params.CategoryHandler != nil {
		r.Route("/categories", func(r chi.Router) {
			params.CategoryHandler.MountRoutes(r, params.Auth)
		})
	}
	if params.AttributeHandler != nil {
		r.Route("/attributes", func(r chi.Router) {
			params.AttributeHandler.MountRoutes(r, params.Auth)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.ImagesDir != "" {
		prefix := params.ImagesURLPrefix
		if prefix == "" {
			prefix = "/images"
		}
		fileServer := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(params.ImagesDir)))
		r.Handle(prefix+"/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler serves uploaded images with a one-day browser cache.
// Stored image names are never reused.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		next.ServeHTTP(w, r)
	})
}
