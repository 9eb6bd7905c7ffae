package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tomlord1122/todo-audit-backend/internal/config"
	"github.com/Tomlord1122/todo-audit-backend/internal/database"
	"github.com/Tomlord1122/todo-audit-backend/internal/logger"
	"github.com/Tomlord1122/todo-audit-backend/internal/repository"
	"github.com/Tomlord1122/todo-audit-backend/internal/server"
	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, redisClient *redis.Client, log *logrus.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing redis client")
		}
	}

	if err := dbService.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection pool")
	}

	log.Info("Server exiting")
	done <- true
}

// newAuthLimiter prefers a Redis-backed limiter so every instance shares the
// same budget, and falls back to process memory when Redis is not configured
// or unreachable at startup.
func newAuthLimiter(cfg *config.Config, log *logrus.Logger) (server.Limiter, *redis.Client) {
	if cfg.Redis.Addr == "" {
		return server.NewMemoryLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password.Value(),
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("Redis unreachable, using in-memory rate limiter")
		_ = client.Close()
		return server.NewMemoryLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow), nil
	}

	log.WithField("addr", cfg.Redis.Addr).Info("Using redis rate limiter")
	return server.NewRedisLimiter(client, cfg.AuthRateLimit, cfg.AuthRateWindow), client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	dbService, err := database.New(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = dbService.Migrate(migrateCtx)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	store := repository.NewGormStore(dbService.GetDB())
	tokens := service.NewTokenManager(cfg.JWTSecret.Value(), cfg.TokenTTL)
	authService, err := service.NewAuthService(store.Users(), tokens, log, bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise auth service")
	}
	limiter, redisClient := newAuthLimiter(cfg, log)

	apiServer := server.NewServer(server.Deps{
		Config:       cfg,
		Log:          log,
		DB:           dbService,
		AuthService:  authService,
		TodoService:  service.NewTodoService(store, log),
		AuditService: service.NewAuditService(store.Audits(), log),
		AuthLimiter:  limiter,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, redisClient, log, done)

	log.WithFields(logrus.Fields{
		"addr":   apiServer.Addr,
		"driver": cfg.Database.Driver,
	}).Info("Starting server")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("HTTP server ListenAndServe error")
		os.Exit(1)
	}

	<-done
	log.Info("Graceful shutdown complete.")
}
