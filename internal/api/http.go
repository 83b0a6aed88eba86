// Package api exposes the estimator over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bher20/costcalc/internal/auth"
	"github.com/bher20/costcalc/internal/catalog"
	"github.com/bher20/costcalc/internal/metrics"
	"github.com/bher20/costcalc/internal/storage"
	"github.com/bher20/costcalc/internal/ui"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	catalog *catalog.Service
	store   storage.Storage
	auth    *auth.Service
}

// NewServer returns a Server. store and authSvc may be nil, in which case
// readiness skips the storage ping and operator routes are not mounted.
func NewServer(svc *catalog.Service, st storage.Storage, authSvc *auth.Service) *Server {
	return &Server{catalog: svc, store: st, auth: authSvc}
}

// Router constructs the chi router, wiring in the API, metrics, health
// endpoints and the web UI.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	// Metrics endpoint.
	r.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.Middleware)
		}
		r.Get("/options", s.handleOptions)
		r.Get("/options/{list}", s.handleOptionList)
		r.Get("/estimate", s.handleEstimate)
		r.Post("/estimate", s.handleEstimate)
		r.Get("/dataset", s.handleDataset)

		if s.auth != nil {
			r.With(s.auth.RequirePermission(auth.ObjectDataset, auth.ActionWrite)).
				Post("/dataset/refresh", s.handleRefresh)
			r.With(s.auth.RequirePermission(auth.ObjectTokens, auth.ActionRead)).
				Get("/tokens", s.handleTokens)
		}
	})

	// Web UI
	r.Handle("/ui/*", http.StripPrefix("/ui/", ui.Handler()))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return r
}

// instrument records request metrics labelled by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		metrics.RequestsTotal.WithLabelValues(path).Inc()
		metrics.RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
		if status := ww.Status(); status >= 400 {
			metrics.RequestErrorsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
		}
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.catalog.Current(); err != nil {
		http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response failed: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeCatalogError maps catalog failures onto status codes.
func writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}
	log.Printf("api: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
