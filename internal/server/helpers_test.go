package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tomlord1122/todo-audit-backend/internal/config"
	"github.com/Tomlord1122/todo-audit-backend/internal/database"
	"github.com/Tomlord1122/todo-audit-backend/internal/repository"
	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestHandler(t *testing.T, limiter Limiter) http.Handler {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	dbService, err := database.NewInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbService.Close() })

	store := repository.NewGormStore(dbService.GetDB())
	tokens := service.NewTokenManager(testSecret, time.Hour)
	auth, err := service.NewAuthService(store.Users(), tokens, log, bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:           8080,
		CORSOrigins:    []string{"http://*", "https://*"},
		AuthRateLimit:  20,
		AuthRateWindow: time.Minute,
	}

	return New(Deps{
		Config:       cfg,
		Log:          log,
		DB:           dbService,
		AuthService:  auth,
		TodoService:  service.NewTodoService(store, log),
		AuditService: service.NewAuditService(store.Audits(), log),
		AuthLimiter:  limiter,
	}).RegisterRoutes()
}

// do sends a request with an optional JSON body and bearer token.
func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// register creates an account and returns its bearer token.
func register(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[service.AuthResponse](t, rec).Token
}

func createTodo(t *testing.T, h http.Handler, token, title string) service.TodoResponse {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/todos", token, map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[service.TodoResponse](t, rec)
}
