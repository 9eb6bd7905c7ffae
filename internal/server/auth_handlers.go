package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to register user")
		return
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to log in")
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}
