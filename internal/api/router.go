package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/savegress/caselens/internal/cases"
	"github.com/savegress/caselens/internal/compare"
	"github.com/savegress/caselens/internal/config"
	"github.com/savegress/caselens/internal/storage"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, engine *cases.Engine, comparator *compare.Comparator, store storage.CaseStorage) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(engine, comparator, store),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/caselens", func(r chi.Router) {
		if s.config.Server.JWTSecret != "" {
			r.Use(AuthMiddleware(s.config))
		}

		// Cases
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", s.handlers.ListCases)
			r.Post("/", s.handlers.CreateCase)
			r.Get("/{id}", s.handlers.GetCase)
			r.Delete("/{id}", s.handlers.DeleteCase)
			r.Post("/{id}/accounts", s.handlers.ImportAccounts)
			r.Post("/{id}/transactions", s.handlers.ImportTransactions)
			r.Post("/{id}/detect", s.handlers.RunDetection)
			r.Get("/{id}/anomalies", s.handlers.GetAnomalies)
			r.Get("/{id}/network", s.handlers.GetNetwork)
			r.Get("/{id}/suspicious", s.handlers.GetSuspiciousTransactions)
		})

		// Comparisons
		r.Route("/comparisons", func(r chi.Router) {
			r.Get("/", s.handlers.ListComparisons)
			r.Post("/", s.handlers.CompareCases)
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
