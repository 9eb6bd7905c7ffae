package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i)
	}

	ok, _ := l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "keys are counted separately")

	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "a new window resets the budget")
	assert.Len(t, l.windows, 1)
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	h := newTestHandler(t, NewMemoryLimiter(2, time.Minute))
	creds := map[string]string{"email": "alice@example.com", "password": "password123"}

	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/auth/register", "", creds).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/auth/login", "", creds).Code)

	rec := do(t, h, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	h := newTestHandler(t, NewMemoryLimiter(2, time.Minute))
	creds := map[string]string{"email": "alice@example.com", "password": "password123"}

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		var body bytes.Buffer
		require.NoError(t, json.NewEncoder(&body).Encode(creds))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", &body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.9.9.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.8.8.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return true, assert.AnError
}

func TestRateLimitFailsOpen(t *testing.T) {
	h := newTestHandler(t, failingLimiter{})
	creds := map[string]string{"email": "alice@example.com", "password": "password123"}

	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/auth/register", "", creds).Code)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	l := NewRedisLimiter(client, 2, time.Minute)
	l.prefix = "test:" + uuid.NewString() + ":"

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i)
	}
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	ok, err := NewRedisLimiter(client, 1, time.Minute).Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, ok)
}
