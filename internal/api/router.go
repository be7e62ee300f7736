package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds settings for the API router, passed from main.go
// so CORS, auth, and the static file roots come from env vars.
type RouterConfig struct {
	// BackendAPIKey protects the /api routes when non-empty. Empty
	// skips auth (development mode).
	BackendAPIKey string

	// CorsAllowedOrigins is a comma-separated list of allowed origins.
	// Empty defaults to "*" (development mode).
	CorsAllowedOrigins string

	// UploadsDir is the local directory served under /uploads/.
	UploadsDir string

	// VideosDir is the local directory served under /videos/.
	VideosDir string
}

func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// CORS: restrict origins when configured, otherwise allow all (dev mode)
	allowedOrigins := []string{"*"}
	if cfg.CorsAllowedOrigins != "" {
		origins := strings.Split(cfg.CorsAllowedOrigins, ",")
		trimmed := make([]string, 0, len(origins))
		for _, o := range origins {
			if s := strings.TrimSpace(o); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			allowedOrigins = trimmed
		}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public endpoints
	r.Get("/health", h.Health)
	r.Get("/ws", h.WebSocket)

	// Generated assets and finished videos are served directly.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/videos/*", http.StripPrefix("/videos/", http.FileServer(http.Dir(cfg.VideosDir))))

	// API routes, protected by API key auth when configured
	r.Route("/api", func(r chi.Router) {
		if cfg.BackendAPIKey != "" {
			r.Use(APIKeyAuth(cfg.BackendAPIKey))
		}

		// Script preparation
		r.Post("/text/custom", h.SplitText)
		r.Post("/text/rewrite", h.RewriteText)

		// Asset generation
		r.Get("/generate/voices", h.Voices)
		r.Post("/generate/image", h.GenerateImage)
		r.Post("/generate/audio", h.GenerateAudio)
		r.Post("/generate/images-all", h.GenerateAllAssets)

		// Video assembly
		r.Post("/generate/video", h.CreateVideo)
	})

	return r
}
