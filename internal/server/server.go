package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"mbtamap/internal/config"
	"mbtamap/internal/handler"
)

// Server is the HTTP server for the map viewer. It starts listening
// before the station directory is built; until Mount is called every
// page answers with a loading screen.
type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	logger *slog.Logger
	srv    *http.Server
	ready  chan struct{} // closed once the directory routes are mounted
}

// New creates a Server serving static assets from static.
func New(cfg *config.Config, static fs.FS, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux, cfg: cfg, logger: logger, ready: make(chan struct{})}

	// Static files, versioned URLs get immutable caching
	fileServer := http.FileServer(http.FS(static))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticCacheHandler(fileServer)))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           withMiddleware(mux, logger, cfg.AllowedOrigins, s.ready),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Mount registers the directory-backed routes and marks the server ready.
func (s *Server) Mount(h *handler.Handler) {
	// Pages
	s.mux.HandleFunc("GET /", h.Viewer)
	s.mux.HandleFunc("GET /manifest.json", h.Manifest)
	s.mux.HandleFunc("GET /healthz", h.Health)

	// Directory
	s.mux.HandleFunc("GET /api/lines", h.Lines)
	s.mux.HandleFunc("GET /api/stations", h.Stations)
	s.mux.HandleFunc("GET /api/stations/nearest", h.Nearest)
	s.mux.HandleFunc("GET /api/search", h.Search)
	s.mux.HandleFunc("GET /api/alerts", h.Alerts)

	// Navigation
	s.mux.HandleFunc("GET /api/plan", h.Plan)
	s.mux.HandleFunc("GET /api/plan.geojson", h.PlanGeoJSON)
	s.mux.HandleFunc("POST /api/nav/next", h.Next)
	s.mux.HandleFunc("POST /api/nav/previous", h.Previous)
	s.mux.HandleFunc("POST /api/nav/select/{index}", h.Select)
	s.mux.HandleFunc("POST /api/nav/details", h.Details)
	s.mux.HandleFunc("POST /api/nav/key/{key}", h.Key)
	s.mux.HandleFunc("POST /api/nav/transitions/{seq}/complete", h.CompleteTransition)

	// Session
	s.mux.HandleFunc("DELETE /api/session", h.EndSession)

	// SSE
	s.mux.HandleFunc("GET /sse/session", h.SSESession)

	s.setReady()
}

func (s *Server) setReady() {
	select {
	case <-s.ready:
		// already closed
	default:
		close(s.ready)
	}
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server starting", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
