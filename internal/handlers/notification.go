// internal/handlers/notification.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/middleware"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// ListNotifications returns the caller's notification history, newest
// first.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	ns, err := database.ListNotifications(r.Context(), userID)
	if err != nil {
		s.Logger.Errorf("list notifications: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if ns == nil {
		ns = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, ns)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkNotificationsRead flips the given notifications to read.
func (s *Server) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_notification_id")
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if err := database.MarkNotificationsRead(r.Context(), userID, ids); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteNotification removes one notification owned by the caller.
func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_notification_id")
		return
	}
	if err := database.DeleteNotification(r.Context(), userID, id); err != nil {
		writeError(w, http.StatusNotFound, "notification_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
