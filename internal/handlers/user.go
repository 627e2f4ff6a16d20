// internal/handlers/user.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/middleware"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

const maxSearchResults = 20

// Me returns the caller's own profile.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	u, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// SearchUsers finds users by username prefix for the invite flow.
func (s *Server) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query")
		return
	}
	limit := maxSearchResults
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < maxSearchResults {
			limit = n
		}
	}

	users, err := database.SearchUsers(r.Context(), query, limit)
	if err != nil {
		s.Logger.Errorf("search users: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// MyStats reports games played and won for the caller.
func (s *Server) MyStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	stats, err := database.GetUserStats(r.Context(), userID)
	if err != nil {
		s.Logger.Errorf("user stats: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
