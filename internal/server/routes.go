package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /projects", h.AnalyzeSource)
	mux.HandleFunc("GET /projects", h.ListProjects)
	mux.HandleFunc("GET /projects/{id}", h.GetProject)
	mux.HandleFunc("PATCH /projects/{id}", h.UpdateProject)
	mux.HandleFunc("GET /projects/{id}/videos", h.ListProjectVideos)

	mux.HandleFunc("POST /videos", h.CreateVideo)
	mux.HandleFunc("GET /videos/{id}", h.GetVideo)

	mux.HandleFunc("POST /webhooks/revid/{token}", h.RevidWebhook)

	mux.HandleFunc("GET /voices", h.ListVoices)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
