package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
)

// TodoRepository defines the task store operations. Every lookup is scoped
// to the owning user; a todo owned by someone else is reported as
// domain.ErrNotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, userID, id uint) (*domain.Todo, error)
	// FindByIDForUpdate is FindByID that also locks the row until the
	// enclosing transaction ends, where the dialect supports it.
	FindByIDForUpdate(ctx context.Context, userID, id uint) (*domain.Todo, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Todo, error)
	// Update writes the named columns of todo; updated_at is always refreshed.
	Update(ctx context.Context, todo *domain.Todo, columns []string) error
	Delete(ctx context.Context, userID, id uint) error
}

type gormTodoRepository struct {
	db *gorm.DB
}

func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("inserting todo: %w", err)
	}
	return nil
}

func (r *gormTodoRepository) FindByID(ctx context.Context, userID, id uint) (*domain.Todo, error) {
	return r.find(r.db.WithContext(ctx), userID, id)
}

func (r *gormTodoRepository) FindByIDForUpdate(ctx context.Context, userID, id uint) (*domain.Todo, error) {
	q := r.db.WithContext(ctx)
	// SQLite has no row locks; its single writer already serialises the transaction.
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(q, userID, id)
}

func (r *gormTodoRepository) find(q *gorm.DB, userID, id uint) (*domain.Todo, error) {
	var todo domain.Todo
	if err := q.Where("id = ? AND user_id = ?", id, userID).First(&todo).Error; err != nil {
		return nil, notFound(err, "finding todo")
	}
	return &todo, nil
}

func (r *gormTodoRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Todo, error) {
	todos := make([]domain.Todo, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

func (r *gormTodoRepository) Update(ctx context.Context, todo *domain.Todo, columns []string) error {
	selected := append(append([]string{}, columns...), "updated_at")

	result := r.db.WithContext(ctx).
		Model(todo).
		Where("user_id = ?", todo.UserID).
		Select(selected).
		Updates(todo)
	if result.Error != nil {
		return fmt.Errorf("updating todo %d: %w", todo.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, userID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Todo{})
	if result.Error != nil {
		return fmt.Errorf("deleting todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
