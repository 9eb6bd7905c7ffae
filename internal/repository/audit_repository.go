package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
)

// AuditRepository appends to and reads from the audit log. There is no
// update or delete: entries are immutable once written.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLog) error
	// ListByUser returns the user's entries newest first (created_at, then id),
	// each joined with the current title of its todo.
	ListByUser(ctx context.Context, userID uint, q domain.AuditQuery) ([]domain.AuditLogView, error)
}

type gormAuditRepository struct {
	db *gorm.DB
}

func (r *gormAuditRepository) Append(ctx context.Context, entry *domain.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("appending %s audit entry for todo %d: %w", entry.Action, entry.TodoID, err)
	}
	return nil
}

func (r *gormAuditRepository) ListByUser(ctx context.Context, userID uint, q domain.AuditQuery) ([]domain.AuditLogView, error) {
	query := r.db.WithContext(ctx).
		Table("audit_logs AS al").
		Select("al.id, al.user_id, al.todo_id, al.action, al.details, al.created_at, t.title AS todo_title").
		// The owner check keeps a reused id from ever surfacing another user's title.
		Joins("LEFT JOIN todos t ON t.id = al.todo_id AND t.user_id = al.user_id").
		Where("al.user_id = ?", userID)

	if q.Action != "" {
		query = query.Where("al.action = ?", q.Action)
	}
	if q.Before != nil {
		query = query.Where("(al.created_at < ? OR (al.created_at = ? AND al.id < ?))",
			q.Before.CreatedAt, q.Before.CreatedAt, q.Before.ID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	entries := make([]domain.AuditLogView, 0)
	if err := query.Order("al.created_at DESC, al.id DESC").Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	return entries, nil
}
