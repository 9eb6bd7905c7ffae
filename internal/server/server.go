package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-audit-backend/internal/config"
	"github.com/Tomlord1122/todo-audit-backend/internal/database"
	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

// Deps holds everything the HTTP layer depends on.
type Deps struct {
	Config       *config.Config
	Log          *logrus.Logger
	DB           database.Service
	AuthService  service.AuthService
	TodoService  service.TodoService
	AuditService service.AuditService
	// AuthLimiter throttles the register and login endpoints.
	AuthLimiter Limiter
}

type Server struct {
	cfg          *config.Config
	log          *logrus.Logger
	db           database.Service
	authService  service.AuthService
	todoService  service.TodoService
	auditService service.AuditService
	authLimiter  Limiter
}

// New builds the application server without binding a listener.
func New(deps Deps) *Server {
	return &Server{
		cfg:          deps.Config,
		log:          deps.Log,
		db:           deps.DB,
		authService:  deps.AuthService,
		todoService:  deps.TodoService,
		auditService: deps.AuditService,
		authLimiter:  deps.AuthLimiter,
	}
}

// NewServer returns an *http.Server serving the application routes on the configured port.
func NewServer(deps Deps) *http.Server {
	appServer := New(deps)

	return &http.Server{
		Addr:         deps.Config.Addr(),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
