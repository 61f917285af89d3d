// Package server wires the chi router and runs the HTTP listener with
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openmaps/shptiles/internal/core/config"
	"github.com/openmaps/shptiles/internal/core/health"
	"github.com/openmaps/shptiles/internal/core/middleware"
	"github.com/openmaps/shptiles/internal/core/router"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, svc router.TileService, layers router.LayerLister) error {
	r := NewRouter(cfg, logger, svc, layers)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// NewRouter assembles the full route table. Split out from Run so tests
// can serve it via httptest.
func NewRouter(_ config.Config, logger *slog.Logger, svc router.TileService, layers router.LayerLister) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/layers", router.HandleLayers(logger, layers))
	r.Get("/layers/{id}/features", router.HandleTile(logger, svc))

	return r
}
