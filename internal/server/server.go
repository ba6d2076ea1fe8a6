// Package server exposes the stored performance records over a read-only
// JSON API: ranked leaderboards, aggregate stats and per-asset detail.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"asset-performance-lab/internal/observability"
	"asset-performance-lab/internal/storage"
)

// Server serves the performance API.
type Server struct {
	buyHold  storage.BuyHoldStore
	dca      storage.DCAStore
	metadata storage.MetadataStore
	log      zerolog.Logger
}

// Options for creating a Server.
type Options struct {
	BuyHoldStore  storage.BuyHoldStore
	DCAStore      storage.DCAStore
	MetadataStore storage.MetadataStore
	Logger        zerolog.Logger
}

// New creates a new Server.
func New(opts Options) *Server {
	return &Server{
		buyHold:  opts.BuyHoldStore,
		dca:      opts.DCAStore,
		metadata: opts.MetadataStore,
		log:      opts.Logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the chi router with CORS, recovery and request metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/leaderboard/stats", s.handleLeaderboardStats)
		r.Get("/assets/list", s.handleAssetsList)
		r.Get("/assets/details", s.handleAssetDetails)
	})

	return r
}

// requestMetrics records the duration histogram by route and status.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observability.DefaultMetrics.RequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn().Err(err).Msg("encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, errorResponse{Error: msg})
}
