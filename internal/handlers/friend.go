// internal/handlers/friend.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/middleware"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// ListFriends returns every friendship row involving the caller.
func (s *Server) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	friends, err := database.ListFriends(r.Context(), userID)
	if err != nil {
		s.Logger.Errorf("list friends: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if friends == nil {
		friends = []models.Friend{}
	}
	writeJSON(w, http.StatusOK, friends)
}

type friendActionRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

// FriendAction handles POST /friends: request, accept, block, remove.
// Acceptance writes an accepted row in each direction.
func (s *Server) FriendAction(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req friendActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	target, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	if target == userID {
		writeError(w, http.StatusBadRequest, "cannot_friend_self")
		return
	}

	from := userID
	switch req.Action {
	case "request":
		if _, err := database.GetUserByID(r.Context(), target); err != nil {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		if err := database.InsertFriendRequest(r.Context(), userID, target); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		n := &models.Notification{UserID: target, Type: models.NotifFriendRequest, FromUserID: &from}
		if err := s.Hub.Notify(r.Context(), n); err != nil {
			s.Logger.Warnf("notify friend request: %v", err)
		}

	case "accept":
		if err := database.AcceptFriend(r.Context(), target, userID); err != nil {
			writeError(w, http.StatusConflict, "no_pending_request")
			return
		}
		n := &models.Notification{UserID: target, Type: models.NotifFriendAccepted, FromUserID: &from}
		if err := s.Hub.Notify(r.Context(), n); err != nil {
			s.Logger.Warnf("notify friend accepted: %v", err)
		}

	case "block":
		if err := database.BlockFriend(r.Context(), userID, target); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		n := &models.Notification{UserID: target, Type: models.NotifFriendBlocked, FromUserID: &from}
		if err := s.Hub.Notify(r.Context(), n); err != nil {
			s.Logger.Warnf("notify friend blocked: %v", err)
		}

	case "remove":
		if err := database.RemoveFriend(r.Context(), userID, target); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}

	default:
		writeError(w, http.StatusBadRequest, "unknown_action")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
