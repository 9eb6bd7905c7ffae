package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-audit-backend/internal/metrics"
)

type contextKey string

const userIDKey contextKey = "user_id"

func withUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok
}

// authenticate rejects requests without a valid bearer token before any
// handler runs and stores the caller's id in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Access denied")
			return
		}

		userID, err := s.authService.Authenticate(r.Context(), token)
		if err != nil {
			s.logFor(r).WithError(err).Debug("rejected bearer token")
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		// The request logger holds a pointer to r, so share the id with it too.
		if holder, ok := r.Context().Value(logHolderKey).(*logHolder); ok {
			holder.userID = userID
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

const logHolderKey contextKey = "log_holder"

// logHolder lets inner middleware report the authenticated user to the
// outer request logger.
type logHolder struct {
	userID uint
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		holder := &logHolder{}

		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logHolderKey, holder)))

		fields := logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
			"client":   r.RemoteAddr,
		}
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			fields["request_id"] = rid
		}
		if holder.userID != 0 {
			fields["user_id"] = holder.userID
		}
		s.log.WithFields(fields).Info("request")
	})
}

// prometheusMiddleware records request count and duration labelled by the
// matched route pattern rather than the raw path.
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := strconv.Itoa(ww.Status())
		metrics.RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}
