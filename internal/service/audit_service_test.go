package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

func TestListAuditEntriesFilterByAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.newUser(t, "alice@example.com")

	todo, err := env.todos.CreateTodo(ctx, alice, service.CreateTodoRequest{Title: "A"})
	require.NoError(t, err)
	_, err = env.todos.UpdateTodo(ctx, alice, todo.ID, service.UpdateTodoRequest{Title: strPtr("B")})
	require.NoError(t, err)

	page, err := env.audits.ListAuditEntries(ctx, alice, service.AuditQueryRequest{Action: "update"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "UPDATE", page.Entries[0].Action)
	require.NotNil(t, page.Entries[0].TodoTitle)
	assert.Equal(t, "B", *page.Entries[0].TodoTitle)

	_, err = env.audits.ListAuditEntries(ctx, alice, service.AuditQueryRequest{Action: "PURGE"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListAuditEntriesPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.newUser(t, "alice@example.com")

	for _, title := range []string{"1", "2", "3", "4", "5"} {
		_, err := env.todos.CreateTodo(ctx, alice, service.CreateTodoRequest{Title: title})
		require.NoError(t, err)
	}
	// Equal timestamps force the id tie-break across page boundaries.
	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, env.db.Model(&domain.AuditLog{}).Where("user_id = ?", alice).Update("created_at", same).Error)

	all := env.auditEntries(t, alice)
	require.Len(t, all, 5)

	var collected []service.AuditEntryResponse
	cursor := ""
	for range 5 {
		page, err := env.audits.ListAuditEntries(ctx, alice, service.AuditQueryRequest{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		collected = append(collected, page.Entries...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, all, collected)
}

func TestListAuditEntriesRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.audits.ListAuditEntries(ctx, 1, service.AuditQueryRequest{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.audits.ListAuditEntries(ctx, 1, service.AuditQueryRequest{Limit: 10_000})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.audits.ListAuditEntries(ctx, 1, service.AuditQueryRequest{Cursor: "%%%"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuditCursorRoundTrip(t *testing.T) {
	want := domain.AuditCursor{CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC), ID: 42}

	got, err := service.DecodeAuditCursor(service.EncodeAuditCursor(want))
	require.NoError(t, err)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestListAuditEntriesEmpty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice@example.com")

	entries := env.auditEntries(t, alice)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
