// Package httpapi wires the HTTP routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"storybook/internal/http/handlers"
	"storybook/internal/infra"
	"storybook/internal/middleware"
)

// NewRouter assembles the API router. Generation endpoints are rate limited
// per client IP; webhook and read endpoints are not.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS([]string{cfg.FrontendURL}),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/themes", app.ListThemes)

	r.Route("/v1/previews", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/", app.CreatePreview)
		r.Get("/{id}", app.GetPreview)
	})

	r.Get("/v1/jobs/{id}", app.GetJob)
	r.Post("/v1/webhooks/payment", app.PaymentWebhook)
	r.Get("/v1/orders/{id}/download", app.DownloadOrder)

	return r
}
