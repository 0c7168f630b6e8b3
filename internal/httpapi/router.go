package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/nrgchamp/quizhub/internal/cache"
	"github.com/nrgchamp/quizhub/internal/clock"
	"github.com/nrgchamp/quizhub/internal/config"
	"github.com/nrgchamp/quizhub/internal/controller"
	"github.com/nrgchamp/quizhub/internal/metrics"
	"github.com/nrgchamp/quizhub/internal/store"
)

// Server bundles the dependencies every handler needs.
type Server struct {
	cfg      config.Config
	store    store.Store
	cache    *cache.Cache
	registry *controller.Registry
	clock    clock.Clock
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewServer(cfg config.Config, st store.Store, c *cache.Cache, reg *controller.Registry, clk clock.Clock, log *slog.Logger, m *metrics.Metrics) *Server {
	return &Server{cfg: cfg, store: st, cache: c, registry: reg, clock: clk, log: log.With(slog.String("component", "httpapi")), metrics: m}
}

// Router builds the full gorilla/mux route table, wrapped in
// gorilla/handlers CORS honoring QUIZHUB_CORS_ORIGINS.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin([]byte(s.cfg.JWTSecret)))
	admin.HandleFunc("/quiz", s.handleCreateQuiz).Methods(http.MethodPost)
	admin.HandleFunc("/quizzes", s.handleListQuizzes).Methods(http.MethodGet)
	admin.HandleFunc("/quiz/{code}", s.handleGetQuizAdmin).Methods(http.MethodGet)
	admin.HandleFunc("/quiz/{code}/status", s.handlePatchQuizStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/quiz/{code}", s.handleDeleteQuiz).Methods(http.MethodDelete)

	r.HandleFunc("/admin/login", s.handleAdminLogin).Methods(http.MethodPost)

	r.HandleFunc("/join", s.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/quiz/{code}/questions", s.handleGetQuestions).Methods(http.MethodGet)
	r.HandleFunc("/submit-answer", s.handleSubmitAnswer).Methods(http.MethodPost)
	r.HandleFunc("/leaderboard/{code}", s.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/quiz/{code}/state", s.handleStateSync).Methods(http.MethodGet)
	r.HandleFunc("/time-sync", s.handleTimeSync).Methods(http.MethodGet)

	r.HandleFunc("/ws/{code}", s.handleSocketUpgrade)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	corsOpts := []handlers.CORSOption{
		handlers.AllowedOrigins(s.cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	}
	if s.cfg.AllowCredentialed() {
		corsOpts = append(corsOpts, handlers.AllowCredentials())
	}

	return withLogging(s.log, handlers.CORS(corsOpts...)(r))
}
