// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/jbbjarnason/fivesuitsrummy/internal/middleware"
)

// Routes builds the full HTTP surface: public auth endpoints, the
// authenticated REST facade, and the socket upgrade.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Public.
	mux.HandleFunc("POST /auth/signup", s.Signup)
	mux.HandleFunc("POST /auth/login", s.Login)
	mux.HandleFunc("GET /auth/verify", s.Verify)
	mux.HandleFunc("POST /auth/refresh", s.Refresh)
	mux.HandleFunc("POST /auth/password-reset", s.RequestPasswordReset)
	mux.HandleFunc("POST /auth/password-reset/confirm", s.ConfirmPasswordReset)

	// Authenticated.
	authed := http.NewServeMux()
	authed.HandleFunc("GET /games", s.ListGames)
	authed.HandleFunc("POST /games", s.CreateGame)
	authed.HandleFunc("GET /games/{id}", s.GetGame)
	authed.HandleFunc("DELETE /games/{id}", s.DeleteGame)
	authed.HandleFunc("POST /games/{id}/invite", s.Invite)
	authed.HandleFunc("POST /games/{id}/leave", s.Leave)
	authed.HandleFunc("POST /games/{id}/nudge", s.Nudge)
	authed.HandleFunc("POST /games/{id}/nudge-player", s.NudgePlayer)
	authed.HandleFunc("POST /games/{id}/livekit-token", s.MediaToken)
	authed.HandleFunc("GET /friends", s.ListFriends)
	authed.HandleFunc("POST /friends", s.FriendAction)
	authed.HandleFunc("GET /notifications", s.ListNotifications)
	authed.HandleFunc("POST /notifications/read", s.MarkNotificationsRead)
	authed.HandleFunc("DELETE /notifications/{id}", s.DeleteNotification)
	authed.HandleFunc("GET /users/me", s.Me)
	authed.HandleFunc("GET /users/search", s.SearchUsers)
	authed.HandleFunc("GET /users/me/stats", s.MyStats)

	requireAuth := middleware.RequireAuth(s.Sessions)
	mux.Handle("/games", requireAuth(authed))
	mux.Handle("/games/", requireAuth(authed))
	mux.Handle("/friends", requireAuth(authed))
	mux.Handle("/notifications", requireAuth(authed))
	mux.Handle("/notifications/", requireAuth(authed))
	mux.Handle("/users/", requireAuth(authed))

	// Sockets authenticate in-band with cmd.hello.
	mux.HandleFunc("/ws", s.Hub.ServeWS)

	return middleware.LogMiddleware(s.Logger)(mux)
}
