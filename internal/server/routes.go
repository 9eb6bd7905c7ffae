package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP is left out: X-Forwarded-For is client controlled and would
	// let callers pick their own rate limit bucket.
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(prometheusMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Next-Cursor"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(s.rateLimit(s.authLimiter))
			r.Post("/register", s.registerHandler)
			r.Post("/login", s.loginHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", s.listTodosHandler)
				r.Post("/", s.createTodoHandler)
				r.Get("/{id}", s.getTodoHandler)
				r.Put("/{id}", s.updateTodoHandler)
				r.Delete("/{id}", s.deleteTodoHandler)
			})

			r.Get("/audit-logs", s.listAuditLogsHandler)
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}
