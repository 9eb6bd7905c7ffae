package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for goose
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-audit-backend/internal/config"
	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies the versioned goose migrations on PostgreSQL. SQLite stores
// (local development and tests) are created from the gorm models instead.
func (s *service) Migrate(ctx context.Context) error {
	if s.cfg.Driver == config.DriverSQLite {
		if err := s.db.WithContext(ctx).AutoMigrate(&domain.User{}, &domain.Todo{}, &domain.AuditLog{}); err != nil {
			return fmt.Errorf("auto-migrating sqlite schema: %w", err)
		}
		return nil
	}

	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	return runGoose(ctx, s.cfg.DSN(), s.log, fsys)
}

func runGoose(ctx context.Context, dsn string, log *logrus.Logger, fsys fs.FS) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}
		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.Debug("all migrations already applied")
	}

	return nil
}
