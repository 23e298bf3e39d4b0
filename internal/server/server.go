// Package server exposes the suggestion engine over HTTP with JSON
// request/response bodies.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ledgermint/saffron/internal/service"
	"github.com/ledgermint/saffron/internal/suggest"
)

// Server routes suggestion, feedback, and promotion requests to the
// engine components.
type Server struct {
	store     service.Storage
	suggester suggest.CategorySuggester
	recorder  suggest.FeedbackRecorder
	promoter  suggest.HintPromoter
	router    *mux.Router
}

// New creates a server wired to the given components.
func New(store service.Storage, suggester suggest.CategorySuggester, recorder suggest.FeedbackRecorder, promoter suggest.HintPromoter) *Server {
	s := &Server{
		store:     store,
		suggester: suggester,
		recorder:  recorder,
		promoter:  promoter,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

// NewDefault creates a server with default engine components over the store.
func NewDefault(store service.Storage) *Server {
	return New(
		store,
		suggest.NewAssembler(store, suggest.DefaultParams()),
		suggest.NewRecorder(store),
		suggest.NewPromoter(store, suggest.DefaultThresholds()),
	)
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(requestLogger)

	api.HandleFunc("/transactions/{id}/suggestions", s.handleSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}/category", s.handleSetCategory).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}/feedback", s.handleListFeedback).Methods(http.MethodGet)
	api.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)
	api.HandleFunc("/promotions", s.handlePromotions).Methods(http.MethodPost)

	api.HandleFunc("/hints", s.handleListHints).Methods(http.MethodGet)
	api.HandleFunc("/hints", s.handleCreateHint).Methods(http.MethodPost)
	api.HandleFunc("/hints/{merchant}/{category}", s.handleDeleteHint).Methods(http.MethodDelete)

	api.HandleFunc("/rules", s.handleListRules).Methods(http.MethodGet)
	api.HandleFunc("/rules", s.handleCreateRule).Methods(http.MethodPost)
	api.HandleFunc("/rules/{id}", s.handleDeactivateRule).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs each API request with method, path, and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
