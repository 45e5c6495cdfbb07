// Package http provides the HTTP delivery layer of the link shortener: the
// web form, redirects, the admin console and the JSON API.
package http

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
)

//go:embed docs/swagger.yml
var swaggerSpec []byte

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the link shortener.
func NewRouter(logger *httplog.Logger, m *metrics.Metrics, linkUseCase linkUseCase, auth adminAuth, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	pages := newPages()
	links := newLinkHandler(linkUseCase, validator.New(), pages, m, opts)
	admin := newAdminHandler(linkUseCase, auth, pages)

	r.Get("/", links.showForm)
	r.Post("/", links.submitForm)
	r.Get("/{alias}", links.redirect)
	r.Get("/qr/{alias}", links.qr)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(admin.requireKey)

		r.Get("/manage", admin.manage)
		r.Post("/update", admin.update)
		r.Post("/delete", admin.delete)
		r.Get("/stats", admin.stats)
		r.Get("/export_csv", admin.exportCSV)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           84600,
		}))

		r.Get("/ping", handlePing)
		r.Post("/shorten", links.shorten)

		r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(swaggerSpec)
		})
		r.Get("/docs/*", httpSwagger.Handler(
			httpSwagger.URL("/api/docs/swagger.yml"),
		))
	})

	return r
}
