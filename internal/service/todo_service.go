package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
	"github.com/Tomlord1122/todo-audit-backend/internal/metrics"
	"github.com/Tomlord1122/todo-audit-backend/internal/repository"
)

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

// UpdateTodoRequest holds the data for updating an existing todo.
// Pointers distinguish an omitted field from one set to its zero value
// (e.g. setting Completed to false).
type UpdateTodoRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	Completed   *bool   `json:"completed"`
}

// TodoResponse is the representation of a todo returned by the service.
type TodoResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	UserID      uint    `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// TodoService manages a user's todos. Every mutation and its audit entry
// commit together or not at all.
type TodoService interface {
	CreateTodo(ctx context.Context, userID uint, req CreateTodoRequest) (*TodoResponse, error)
	GetTodo(ctx context.Context, userID, id uint) (*TodoResponse, error)
	ListTodos(ctx context.Context, userID uint) ([]TodoResponse, error)
	UpdateTodo(ctx context.Context, userID, id uint, req UpdateTodoRequest) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, userID, id uint) error
}

type todoService struct {
	store repository.Store
	log   *logrus.Logger
}

// NewTodoService creates a TodoService over store.
func NewTodoService(store repository.Store, log *logrus.Logger) TodoService {
	return &todoService{store: store, log: log}
}

func toTodoResponse(t *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *todoService) CreateTodo(ctx context.Context, userID uint, req CreateTodoRequest) (*TodoResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		Completed:   false,
		UserID:      userID,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Todos().Create(ctx, todo); err != nil {
			return err
		}
		return appendAudit(ctx, tx, userID, todo.ID, domain.AuditActionCreate, todo.Snapshot())
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("creating todo")
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	s.recorded(domain.AuditActionCreate, userID, todo.ID)
	resp := toTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) GetTodo(ctx context.Context, userID, id uint) (*TodoResponse, error) {
	todo, err := s.store.Todos().FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting todo %d: %w", id, err)
	}
	resp := toTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) ListTodos(ctx context.Context, userID uint) ([]TodoResponse, error) {
	todos, err := s.store.Todos().ListByUser(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("listing todos")
		return nil, fmt.Errorf("listing todos: %w", err)
	}

	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, toTodoResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, userID, id uint, req UpdateTodoRequest) (*TodoResponse, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	patch := domain.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}

	var (
		updated *domain.Todo
		changes domain.ChangeSet
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Todos().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}

		changes = patch.Diff(current)
		updated = current
		if changes.Empty() {
			return nil
		}

		columns := patch.Apply(current)
		if err := tx.Todos().Update(ctx, current, columns); err != nil {
			return err
		}
		return appendAudit(ctx, tx, userID, id, domain.AuditActionUpdate, changes)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "todo_id": id}).Error("updating todo")
		}
		return nil, fmt.Errorf("updating todo %d: %w", id, err)
	}

	if !changes.Empty() {
		s.recorded(domain.AuditActionUpdate, userID, id)
	} else {
		s.log.WithFields(logrus.Fields{"user_id": userID, "todo_id": id}).Debug("no changes detected, audit entry skipped")
	}
	resp := toTodoResponse(updated)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, userID, id uint) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Todos().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}

		// The snapshot must come from the row as it was before removal.
		if err := appendAudit(ctx, tx, userID, id, domain.AuditActionDelete, current.Snapshot()); err != nil {
			return err
		}
		return tx.Todos().Delete(ctx, userID, id)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "todo_id": id}).Error("deleting todo")
		}
		return fmt.Errorf("deleting todo %d: %w", id, err)
	}

	s.recorded(domain.AuditActionDelete, userID, id)
	return nil
}

// appendAudit records one audit entry inside the caller's transaction.
func appendAudit(ctx context.Context, tx repository.Store, userID, todoID uint, action domain.AuditAction, payload any) error {
	entry, err := domain.NewAuditLog(userID, todoID, action, payload)
	if err != nil {
		return err
	}
	return tx.Audits().Append(ctx, entry)
}

func (s *todoService) recorded(action domain.AuditAction, userID, todoID uint) {
	metrics.AuditEntriesTotal.WithLabelValues(string(action)).Inc()
	s.log.WithFields(logrus.Fields{
		"action":  action,
		"user_id": userID,
		"todo_id": todoID,
	}).Debug("audit entry recorded")
}
