package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/video-stream/signreel/internal/api/handlers"
	"github.com/video-stream/signreel/internal/api/middleware"
	"github.com/video-stream/signreel/internal/auth"
	"github.com/video-stream/signreel/internal/config"
	"github.com/video-stream/signreel/internal/db"
	"github.com/video-stream/signreel/internal/job"
)

const maxJSONBody = 1 << 20

// NewRouter wires the HTTP API. recognizers lists the configured speech
// recognizer names for the settings endpoint.
func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, jobQueue *job.JobQueue, recognizers []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	authHandler := handlers.NewAuthHandler(database, jwtService)
	adminHandler := handlers.NewAdminHandler(database)
	renderHandler := handlers.NewRenderHandler(jobQueue, cfg.UploadPath, cfg.OutputPath)
	jobHandler := handlers.NewJobHandler(jobQueue, cfg.OutputPath)
	assetsHandler := handlers.NewAssetsHandler(cfg.MediaPath)
	settingsHandler := handlers.NewSettingsHandler(database, recognizers, cfg.Recognizer, cfg.Language)
	uploadLimiter := middleware.NewRateLimiter(cfg.UploadsPerMin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		r.With(middleware.MaxBodySize(maxJSONBody)).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			r.Get("/auth/me", authHandler.Me)

			// Renders
			r.With(uploadLimiter.Handler).Post("/renders", renderHandler.Upload)
			r.With(uploadLimiter.Handler, middleware.MaxBodySize(maxJSONBody)).Post("/renders/text", renderHandler.Compose)
			r.Get("/renders/{id}/video", renderHandler.Video)
			r.Get("/renders/{id}/poster", renderHandler.Poster)

			// Jobs
			r.Get("/jobs", jobHandler.ListJobs)
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Delete("/jobs/{id}", jobHandler.DeleteJob)

			// Sign vocabulary
			r.Get("/assets", assetsHandler.Search)
			r.Get("/assets/{key}", assetsHandler.Preview)

			// Settings
			r.Get("/settings", settingsHandler.GetSettings)
			r.With(middleware.RequireRole("admin"), middleware.MaxBodySize(maxJSONBody)).Put("/settings", settingsHandler.UpdateSettings)

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Get("/users", adminHandler.ListUsers)
				r.With(middleware.MaxBodySize(maxJSONBody)).Post("/users", adminHandler.CreateUser)
			})
		})
	})

	return r
}
