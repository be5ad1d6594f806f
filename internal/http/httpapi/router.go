package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"photofx/internal/http/handlers"
	"photofx/internal/middleware"
)

type RouterOptions struct {
	Locale          string
	RateLimitPerMin int
	CORSOrigins     []string
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Locale(opts.Locale),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin))

		r.Get("/v1/state", app.GetState)
		r.Post("/v1/session", app.StartSession)
		r.Get("/v1/catalog", app.GetCatalog)

		r.Route("/v1/generations", func(r chi.Router) {
			r.Post("/photo", app.GeneratePhoto)
			r.Post("/prompt", app.GeneratePrompt)
		})

		r.Route("/v1/history", func(r chi.Router) {
			r.Get("/", app.ListHistory)
			r.Delete("/", app.ClearHistory)
			r.Get("/export", app.ExportHistory)
			r.Delete("/{id}", app.DeleteHistory)
			r.Post("/{jobId}/refresh", app.RefreshHistory)
		})

		r.Get("/v1/images", app.Image)
	})

	// The stream stays open; it is not rate limited per request.
	r.Get("/v1/events", app.Events)

	return r
}
