package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-audit-backend/internal/domain"
	"github.com/Tomlord1122/todo-audit-backend/internal/metrics"
)

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
// On failure it writes a 400 (or 413) response and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err == nil {
		if decoder.More() {
			respondWithError(w, http.StatusBadRequest, "Request body must only contain a single JSON object")
			return false
		}
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
	case errors.As(err, &maxBytesError):
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit))
	default:
		s.logFor(r).WithError(err).Error("decoding request body")
		respondWithError(w, http.StatusInternalServerError, "Error processing request")
	}
	return false
}

// parseID reads the {id} path parameter as a positive integer.
func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return 0, false
	}
	return uint(id), true
}

// respondWithServiceError maps a service error onto its HTTP status. Storage
// failures are logged and reported without detail.
func (s *Server) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Todo not found")
	case errors.Is(err, domain.ErrDuplicateUser):
		respondWithError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, domain.ErrUnauthenticated):
		respondWithError(w, http.StatusUnauthorized, "Access denied")
	default:
		s.logFor(r).WithError(err).Error(fallback)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) logFor(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		fields["request_id"] = rid
	}
	if uid, ok := userIDFrom(r.Context()); ok {
		fields["user_id"] = uid
	}
	return s.log.WithFields(fields)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	metrics.ErrorsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
