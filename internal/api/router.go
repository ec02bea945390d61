// Package api exposes the scan pipeline over HTTP for webhook-style
// integrations. It is a thin shell: all policy logic lives in the pipeline
// and its engines.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/policyscope/policyscan/internal/pipeline"
	"github.com/policyscope/policyscan/internal/store"
)

// NewRouter creates a chi router with all endpoints and middleware. st may
// be nil when running without persistence; the company listing endpoint then
// returns 503.
func NewRouter(p *pipeline.Pipeline, st store.Store) http.Handler {
	h := &Handler{pipeline: p, store: st}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/discover", h.handleDiscover)
		r.Post("/scan", h.handleScan)
		r.Get("/companies", h.handleListCompanies)
		r.Get("/companies/{domain}", h.handleGetCompany)
	})

	return r
}
