package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	frontend_mw "github.com/itchan-dev/emojiprofile/frontend/internal/middleware"
	"github.com/itchan-dev/emojiprofile/frontend/internal/setup"
	"github.com/itchan-dev/emojiprofile/shared/config"
	mw "github.com/itchan-dev/emojiprofile/shared/middleware"
	"github.com/itchan-dev/emojiprofile/shared/middleware/metrics"
	"github.com/itchan-dev/emojiprofile/shared/validation"
)

// New wires every route of the frontend.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints combined in that group
func New(deps *setup.Dependencies) http.Handler {
	public := deps.Config.Public
	h := deps.Handler

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeadersWithCSP(public.Server.SecureCookies, mw.DefaultCSP))

	// Probes and metrics carry no session
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(public.Server.StaticPath))))

	csrfConfig := frontend_mw.CSRFConfig{
		SecureCookies: public.Server.SecureCookies,
		MaxBodyBytes:  validation.CalculateMaxRequestSize(public.Upload.MaxFileSizeBytes, 1<<20),
		TooLarge:      h.UploadTooLarge,
	}
	sessionConfig := frontend_mw.SessionConfig{
		SecureCookies: public.Server.SecureCookies,
		MaxAge:        int(deps.Config.SessionTTL().Seconds()),
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(deps.IPLimiter, mw.GetIP))
		r.Use(frontend_mw.GenerateCSRFToken(csrfConfig))
		r.Use(frontend_mw.Sessions(deps.Tokens, deps.Sessions, sessionConfig))
		r.Use(frontend_mw.ValidateCSRFToken(csrfConfig))

		r.Use(chimw.Compress(5, "text/html", "text/css", "application/json"))
		r.Get("/", h.IndexGetHandler)
		r.Get("/about", h.AboutGetHandler)
		r.Post("/mood", h.MoodPostHandler)
		r.Get("/download", h.DownloadGetHandler)
		r.Get("/resources/{id}", h.ResourceGetHandler)

		// Upload: 30 per minute per session
		r.With(mw.RateLimit(deps.UploadLimiter, frontend_mw.SessionIdentity)).Post("/upload", h.UploadPostHandler)
		// Convert: configured per session, each call hits the backend
		r.With(
			mw.RateLimit(deps.ConvertLimiter, frontend_mw.SessionIdentity),
			mw.GlobalRateLimit(deps.BackendLimiter),
		).Post("/convert", h.ConvertPostHandler)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(corsOptions(public.CORS)))
			r.Get("/moods", h.APIMoods)
			r.Get("/state", h.APIState)
		})
	})

	return r
}

func corsOptions(cfg config.CORS) cors.Options {
	return cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
