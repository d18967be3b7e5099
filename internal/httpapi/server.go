// Package httpapi serves the pipeline over HTTP with JSON bodies and data
// URL images.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/ironsheep/pixelator-mcp/internal/config"
	"github.com/ironsheep/pixelator-mcp/internal/logging"
	"github.com/ironsheep/pixelator-mcp/internal/service"
)

// Version is reported by /health.
var Version = "1.0.0"

// API holds the routes and their shared state.
type API struct {
	svc       *service.Service
	cfg       config.Config
	started   time.Time
	maxBody   int64
	origins   map[string]bool
	anyOrigin bool
}

// New returns an API enforcing the limits in cfg.
func New(cfg config.Config) *API {
	a := &API{
		svc:     service.New(cfg),
		cfg:     cfg,
		started: time.Now(),
		maxBody: cfg.MaxBodyBytes(),
		origins: make(map[string]bool, len(cfg.CORSOrigins)),
	}
	for _, o := range cfg.CORSOrigins {
		if o == "*" {
			a.anyOrigin = true
		}
		a.origins[o] = true
	}
	return a
}

// Handler returns the routes wrapped in recovery, request logging, CORS and
// gzip middleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /algorithms", a.handleAlgorithms)
	mux.HandleFunc("POST /process", a.handleProcess)
	mux.HandleFunc("POST /detect-grid", a.handleDetectGrid)
	mux.HandleFunc("POST /grid-overlay", a.handleGridOverlay)

	var h http.Handler = mux
	h = gzhttp.GzipHandler(h)
	h = a.cors(h)
	h = logRequests(h)
	h = recoverPanics(h)
	return h
}

// ListenAndServe serves on cfg.Addr() until ctx is cancelled, then shuts
// down gracefully.
func (a *API) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Logger().Info("http listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout+5*time.Second)
	defer cancel()
	logging.Logger().Info("http shutting down")
	return srv.Shutdown(shutdownCtx)
}
