package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
	"github.com/Tomlord1122/todo-audit-backend/internal/repository"
)

const maxAuditPageSize = 500

// AuditQueryRequest carries the optional filters of an audit listing.
// The zero value returns every entry.
type AuditQueryRequest struct {
	Action string
	Limit  int
	Cursor string
}

// AuditEntryResponse is one audit entry as returned to clients. TodoTitle is
// null when the todo no longer exists.
type AuditEntryResponse struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	TodoID    uint            `json:"todo_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	CreatedAt string          `json:"created_at"`
	TodoTitle *string         `json:"todo_title"`
}

// AuditPage is a slice of the newest-first audit log. NextCursor is empty
// when no further entries exist.
type AuditPage struct {
	Entries    []AuditEntryResponse
	NextCursor string
}

// AuditService reads a user's audit trail.
type AuditService interface {
	ListAuditEntries(ctx context.Context, userID uint, req AuditQueryRequest) (*AuditPage, error)
}

type auditService struct {
	audits repository.AuditRepository
	log    *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(audits repository.AuditRepository, log *logrus.Logger) AuditService {
	return &auditService{audits: audits, log: log}
}

func (s *auditService) ListAuditEntries(ctx context.Context, userID uint, req AuditQueryRequest) (*AuditPage, error) {
	q, err := buildAuditQuery(req)
	if err != nil {
		return nil, err
	}

	// Fetch one extra row to learn whether another page exists.
	if q.Limit > 0 {
		q.Limit++
	}

	views, err := s.audits.ListByUser(ctx, userID, q)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("listing audit entries")
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}

	page := &AuditPage{}
	if req.Limit > 0 && len(views) > req.Limit {
		views = views[:req.Limit]
		last := views[len(views)-1]
		page.NextCursor = EncodeAuditCursor(domain.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	page.Entries = make([]AuditEntryResponse, 0, len(views))
	for _, v := range views {
		details := json.RawMessage(v.Details)
		if len(details) == 0 {
			details = json.RawMessage("{}")
		}
		page.Entries = append(page.Entries, AuditEntryResponse{
			ID:        v.ID,
			UserID:    v.UserID,
			TodoID:    v.TodoID,
			Action:    string(v.Action),
			Details:   details,
			CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339Nano),
			TodoTitle: v.TodoTitle,
		})
	}
	return page, nil
}

func buildAuditQuery(req AuditQueryRequest) (domain.AuditQuery, error) {
	var q domain.AuditQuery

	if req.Action != "" {
		action := domain.AuditAction(strings.ToUpper(req.Action))
		if !action.Valid() {
			return q, fmt.Errorf("%w: action must be one of CREATE, UPDATE, DELETE", domain.ErrValidation)
		}
		q.Action = action
	}

	if req.Limit < 0 || req.Limit > maxAuditPageSize {
		return q, fmt.Errorf("%w: limit must be between 0 and %d", domain.ErrValidation, maxAuditPageSize)
	}
	q.Limit = req.Limit

	if req.Cursor != "" {
		cursor, err := DecodeAuditCursor(req.Cursor)
		if err != nil {
			return q, err
		}
		q.Before = &cursor
	}

	return q, nil
}

// EncodeAuditCursor renders a keyset position as an opaque URL-safe string.
func EncodeAuditCursor(c domain.AuditCursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatUint(uint64(c.ID), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeAuditCursor parses a cursor produced by EncodeAuditCursor.
func DecodeAuditCursor(s string) (domain.AuditCursor, error) {
	invalid := fmt.Errorf("%w: invalid cursor", domain.ErrValidation)

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return domain.AuditCursor{}, invalid
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return domain.AuditCursor{}, invalid
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return domain.AuditCursor{}, invalid
	}
	i, err := strconv.ParseUint(id, 10, 64)
	if err != nil || i == 0 {
		return domain.AuditCursor{}, invalid
	}

	return domain.AuditCursor{CreatedAt: time.Unix(0, n).UTC(), ID: uint(i)}, nil
}
