package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	todos, err := s.todoService.ListTodos(r.Context(), userID)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todos")
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	var req service.CreateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todoService.CreateTodo(r.Context(), userID, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to create todo")
		return
	}
	respondWithJSON(w, http.StatusCreated, todo)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	todo, err := s.todoService.GetTodo(r.Context(), userID, id)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todo")
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req service.UpdateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todoService.UpdateTodo(r.Context(), userID, id, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to update todo")
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.todoService.DeleteTodo(r.Context(), userID, id); err != nil {
		s.respondWithServiceError(w, r, err, "Failed to delete todo")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted successfully"})
}
