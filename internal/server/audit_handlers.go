package server

import (
	"net/http"
	"strconv"

	"github.com/Tomlord1122/todo-audit-backend/internal/service"
)

func (s *Server) listAuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	q := r.URL.Query()

	req := service.AuditQueryRequest{
		Action: q.Get("action"),
		Cursor: q.Get("cursor"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit provided")
			return
		}
		req.Limit = limit
	}

	page, err := s.auditService.ListAuditEntries(r.Context(), userID, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve audit logs")
		return
	}
	if page.NextCursor != "" {
		w.Header().Set("X-Next-Cursor", page.NextCursor)
	}
	respondWithJSON(w, http.StatusOK, page.Entries)
}
