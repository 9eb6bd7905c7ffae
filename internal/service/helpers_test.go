package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-audit-backend/internal/database"
	"github.com/Tomlord1122/todo-audit-backend/internal/repository"
	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// testEnv wires the services over a private in-memory store.
type testEnv struct {
	db     *gorm.DB
	store  repository.Store
	tokens *service.TokenManager
	auth   service.AuthService
	todos  service.TodoService
	audits service.AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := testLogger()
	dbService, err := database.NewInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbService.Close() })

	store := repository.NewGormStore(dbService.GetDB())
	tokens := service.NewTokenManager(testSecret, time.Hour)
	auth, err := service.NewAuthService(store.Users(), tokens, log, bcrypt.MinCost)
	require.NoError(t, err)

	return &testEnv{
		db:     dbService.GetDB(),
		store:  store,
		tokens: tokens,
		auth:   auth,
		todos:  service.NewTodoService(store, log),
		audits: service.NewAuditService(store.Audits(), log),
	}
}

// newUser registers a user and returns its id.
func (e *testEnv) newUser(t *testing.T, email string) uint {
	t.Helper()

	resp, err := e.auth.Register(context.Background(), service.RegisterRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return resp.User.ID
}

func (e *testEnv) auditEntries(t *testing.T, userID uint) []service.AuditEntryResponse {
	t.Helper()

	page, err := e.audits.ListAuditEntries(context.Background(), userID, service.AuditQueryRequest{})
	require.NoError(t, err)
	return page.Entries
}

// failAuditWrites makes every insert into audit_logs fail, simulating an
// audit store outage in the middle of a mutation.
func (e *testEnv) failAuditWrites(t *testing.T) {
	t.Helper()

	err := e.db.Callback().Create().Before("gorm:create").Register("test:fail_audit", func(tx *gorm.DB) {
		if tx.Statement.Table == "audit_logs" {
			_ = tx.AddError(errors.New("audit store unavailable"))
		}
	})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
