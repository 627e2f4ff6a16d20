// internal/handlers/handlers.go
package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jbbjarnason/fivesuitsrummy/internal/auth"
	"github.com/jbbjarnason/fivesuitsrummy/internal/config"
	"github.com/jbbjarnason/fivesuitsrummy/internal/hub"
	"github.com/jbbjarnason/fivesuitsrummy/internal/mailer"
)

// Server bundles the dependencies the REST facade needs. Handlers are
// methods so tests can wire in fakes.
type Server struct {
	Logger   *logrus.Logger
	Cfg      *config.Config
	Sessions *auth.Service
	Media    *auth.MediaMinter
	Hub      *hub.Hub
	Mail     mailer.Mailer
}

func NewServer(logger *logrus.Logger, cfg *config.Config, sessions *auth.Service, h *hub.Hub, mail mailer.Mailer) *Server {
	return &Server{
		Logger:   logger,
		Cfg:      cfg,
		Sessions: sessions,
		Media:    auth.NewMediaMinter(cfg.MediaKey, cfg.MediaSecret),
		Hub:      h,
		Mail:     mail,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError emits the stable error envelope: {"error": "<code>"}.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// randomToken returns a hex token for email verification and password
// reset links.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
