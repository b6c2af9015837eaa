// Package api is the HTTP adapter over the repository: a thin chi router
// translating the route table of spec.md §6.2 into repository calls and
// mapping the resulting error taxonomy onto status codes. See
// NikeGunn-tutu/internal/api/server.go for the middleware stack and
// writeJSON/writeError helpers this mirrors, and original_source/src/api/
// routes.rs for the route-to-repository-call mapping itself.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the bandit service's HTTP API server.
type Server struct {
	repo           Repository
	metricsEnabled bool
}

// NewServer constructs a Server backed by repo.
func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

// EnableMetrics mounts the Prometheus /metrics endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1/experiments", func(r chi.Router) {
		r.Get("/ping", s.handlePing)
		r.Get("/list", s.handleList)
		r.Delete("/clear", s.handleClear)
		r.Post("/create", s.handleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/ping", s.handleExperimentPing)
			r.Put("/reset", s.handleReset)
			r.Delete("/delete", s.handleDeleteExperiment)
			r.Post("/add_arm", s.handleAddArm)
			r.Get("/draw", s.handleDraw)
			r.Put("/update", s.handleUpdate)
			r.Put("/update_batch", s.handleUpdateBatch)
			r.Get("/stats", s.handleStats)

			r.Route("/{arm}", func(r chi.Router) {
				r.Post("/reset", s.handleResetArm)
				r.Put("/disable", s.handleDisableArm)
				r.Put("/enable", s.handleEnableArm)
				r.Delete("/delete", s.handleDeleteArm)
			})
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
