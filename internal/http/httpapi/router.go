package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"roomdesign/internal/http/handlers"
	"roomdesign/internal/infra"
	"roomdesign/internal/metrics"
	"roomdesign/internal/middleware"
)

type Options struct {
	Logger         infra.Logger
	AllowedOrigins []string
	// GenerationLimiter guards the routes that call the remote model. Nil
	// disables limiting.
	GenerationLimiter middleware.Limiter
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.Metrics,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale,
	)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/categories", app.Categories)

		r.Post("/sessions", app.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.DeleteSession)
			r.Put("/image", app.UploadImage)
			r.Put("/category", app.SelectCategory)
			r.Get("/images/{kind}", app.Image)
			r.Get("/visualizations/{index}", app.Visualization)
			r.Get("/visualizations.zip", app.VisualizationsZip)

			r.Group(func(r chi.Router) {
				if opts.GenerationLimiter != nil {
					r.Use(middleware.RateLimit(opts.GenerationLimiter, opts.Logger))
				}
				r.Put("/clean", app.SetCleanMode)
				r.Post("/generate", app.Generate)
			})
		})
	})

	return r
}
