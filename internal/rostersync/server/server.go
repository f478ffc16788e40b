// Package server is an in-memory implementation of the rostering REST API. It
// backs the serve command and the end-to-end tests of the sync operations.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tansive/rostersync/internal/common/httpx"
	"github.com/tansive/rostersync/internal/common/middleware"
)

// BasePath is where the REST API is mounted.
const BasePath = "/rest"

// Options configures a RosterServer.
type Options struct {
	HandleCORS bool
	// Gatherer, when set, is exposed on /metrics.
	Gatherer prometheus.Gatherer
}

// RosterServer serves the REST API over a Repository.
type RosterServer struct {
	Router *chi.Mux
	repo   *Repository
	opts   Options
}

// CreateNewServer creates a server over repo.
func CreateNewServer(repo *Repository, opts Options) (*RosterServer, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &RosterServer{
		Router: chi.NewRouter(),
		repo:   repo,
		opts:   opts,
	}, nil
}

// MountHandlers sets up middleware and routes.
func (s *RosterServer) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if s.opts.HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.Route(BasePath, func(r chi.Router) {
		r.Route("/tenant", func(r chi.Router) {
			r.Get("/", httpx.WrapHttpRsp(s.listTenants))
			r.Route("/{tenantId}", func(r chi.Router) {
				mountTable(r, s.repo, skills)
				mountTable(r, s.repo, contracts)
				mountTable(r, s.repo, spots)
				mountTable(r, s.repo, employees)
			})
		})
		r.Get("/version", s.getVersion)
		r.Get("/ready", s.getReadiness)
	})
	if s.opts.Gatherer != nil {
		s.Router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
}

// GetVersionRsp represents the response for version information.
type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *RosterServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &GetVersionRsp{
		ServerVersion: "Rostersync Reference Server: " + Version,
		ApiVersion:    Version,
	})
}

func (s *RosterServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// HandleCORS provides CORS middleware for browser clients.
func (s *RosterServer) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
