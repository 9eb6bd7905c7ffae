package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AuditAction identifies the kind of mutation an audit entry records.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// Valid reports whether a is one of the known actions.
func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete:
		return true
	}
	return false
}

// AuditLog is an append-only record of one mutation on a todo.
// TodoID intentionally carries no foreign key: it outlives the todo row.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"not null;index:idx_audit_logs_user_created,priority:1"`
	TodoID    uint           `gorm:"not null"`
	Action    AuditAction    `gorm:"size:16;not null"`
	Details   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"index:idx_audit_logs_user_created,priority:2"`
}

// AuditLogView is an audit entry joined with the current title of its todo.
// TodoTitle is nil once the todo has been deleted.
type AuditLogView struct {
	AuditLog
	TodoTitle *string
}

// FieldChange holds the before and after value of one field.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// ChangeSet maps a field name to its change. Unchanged fields are absent.
type ChangeSet map[string]FieldChange

// Empty reports whether no field changed.
func (c ChangeSet) Empty() bool { return len(c) == 0 }

// NewAuditLog builds an entry whose details are the JSON encoding of payload.
func NewAuditLog(userID, todoID uint, action AuditAction, payload any) (*AuditLog, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s audit details: %w", action, err)
	}

	return &AuditLog{
		UserID:  userID,
		TodoID:  todoID,
		Action:  action,
		Details: datatypes.JSON(raw),
	}, nil
}

// AuditCursor is a keyset position in the newest-first audit ordering.
type AuditCursor struct {
	CreatedAt time.Time
	ID        uint
}

// AuditQuery narrows an audit listing. The zero value lists everything.
type AuditQuery struct {
	Action AuditAction
	Limit  int
	Before *AuditCursor
}
