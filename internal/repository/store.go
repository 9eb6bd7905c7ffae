package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. Repositories
// obtained from the Store passed to WithinTx all run inside that transaction.
type Store interface {
	Users() UserRepository
	Todos() TodoRepository
	Audits() AuditRepository

	// WithinTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository   { return &gormUserRepository{db: s.db} }
func (s *gormStore) Todos() TodoRepository   { return &gormTodoRepository{db: s.db} }
func (s *gormStore) Audits() AuditRepository { return &gormAuditRepository{db: s.db} }

func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
