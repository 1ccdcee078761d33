// Package api serves products, date parsing and notification checks over
// a local JSON API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rcliao/expiry-tracker/internal/model"
	"github.com/rcliao/expiry-tracker/internal/notify"
	"github.com/rcliao/expiry-tracker/internal/store"
)

// Products is the storage the API needs.
type Products interface {
	store.Store
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)
}

// Checker runs a notification pass on demand.
type Checker interface {
	CheckAndNotify(ctx context.Context) notify.Report
}

// HTTPConfig has the configuration for the HTTP server.
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewHTTPServer creates and configures a new HTTP server instance.
func NewHTTPServer(cfg HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}
}

// NewRouter creates a chi router with request ids, structured logging and
// panic recovery, and registers h on it.
func NewRouter(h *Handler, logger *slog.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(structuredLogger(logger))
	mux.Use(recoverer(logger))
	h.RegisterRoutes(mux)
	return mux
}
