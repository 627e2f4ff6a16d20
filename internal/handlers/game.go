// internal/handlers/game.go
package handlers

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/game"
	"github.com/jbbjarnason/fivesuitsrummy/internal/hub"
	"github.com/jbbjarnason/fivesuitsrummy/internal/middleware"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

const defaultMaxPlayers = 4

func randomSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:]) &^ (1 << 63)), nil
}

// gameIDFromPath parses the {id} path segment.
func gameIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// ListGames returns every game the caller is seated in.
func (s *Server) ListGames(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	recs, err := database.ListGamesForUser(r.Context(), userID)
	if err != nil {
		s.Logger.Errorf("list games: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if recs == nil {
		recs = []models.GameRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type createGameRequest struct {
	MaxPlayers int `json:"maxPlayers"`
}

// CreateGame opens a new lobby with the caller as host at seat 0.
func (s *Server) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	u, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req createGameRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = defaultMaxPlayers
	}
	if req.MaxPlayers < 2 || req.MaxPlayers > 7 {
		writeError(w, http.StatusBadRequest, "invalid_max_players")
		return
	}

	seed, err := randomSeed()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	rec := models.GameRecord{
		ID:         uuid.New(),
		Status:     models.GameLobby,
		CreatedBy:  userID,
		MaxPlayers: req.MaxPlayers,
		RNGSeed:    seed,
	}
	if err := database.InsertGame(r.Context(), rec); err != nil {
		s.Logger.Errorf("insert game: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	g := game.NewGame(rec.ID, userID, rec.MaxPlayers, seed)
	if err := g.AddPlayer(userID, u.Username); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	s.Hub.Register(g, 0)

	writeJSON(w, http.StatusCreated, rec)
}

type gameDetail struct {
	models.GameRecord
	State *game.Snapshot `json:"state,omitempty"`
}

// GetGame returns the stored record plus, for members, the caller's live
// projection.
func (s *Server) GetGame(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	rec, err := database.GetGame(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusNotFound, "game_not_found")
		return
	}

	detail := gameDetail{GameRecord: *rec}
	err = s.Hub.Do(gameID, false, func(g *game.FiveCrownsGame) error {
		if g.PlayerByID(userID) != nil {
			snap := g.SnapshotFor(userID)
			detail.State = &snap
		}
		return nil
	})
	if err != nil {
		s.Logger.Debugf("no live game %s: %v", gameID, err)
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteGame removes a lobby game. Host only. Members are notified and
// subscribers get evt.gameDeleted.
func (s *Server) DeleteGame(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	rec, err := database.GetGame(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusNotFound, "game_not_found")
		return
	}
	if rec.CreatedBy != userID {
		writeError(w, http.StatusForbidden, "not_host")
		return
	}
	if rec.Status != models.GameLobby {
		writeError(w, http.StatusConflict, "game_not_deletable")
		return
	}

	seats, err := database.ListGamePlayers(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	if err := database.DeleteGame(r.Context(), gameID); err != nil {
		writeError(w, http.StatusConflict, "game_not_deletable")
		return
	}
	s.Hub.GameDeleted(gameID)

	for _, seat := range seats {
		if seat.UserID == userID {
			continue
		}
		gid := gameID
		from := userID
		n := &models.Notification{
			UserID:     seat.UserID,
			Type:       models.NotifGameDeleted,
			FromUserID: &from,
			GameID:     &gid,
		}
		if err := s.Hub.Notify(r.Context(), n); err != nil {
			s.Logger.Warnf("notify game deleted: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type inviteRequest struct {
	UserID string `json:"userId"`
}

// Invite asks an accepted friend into a lobby game.
func (s *Server) Invite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	target, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}

	// Friendship acceptance writes a row in each direction; any accepted
	// row counts.
	friends, err := database.AreFriends(r.Context(), userID, target)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if !friends {
		writeError(w, http.StatusForbidden, "not_friends")
		return
	}

	err = s.Hub.Do(gameID, false, func(g *game.FiveCrownsGame) error {
		if g.PlayerByID(userID) == nil {
			return game.ErrNotInGame
		}
		if g.Status != models.GameLobby {
			return game.ErrGameNotActive
		}
		if len(g.Players) >= g.MaxPlayers {
			return game.ErrGameFull
		}
		if g.PlayerByID(target) != nil {
			return game.ErrAlreadyInGame
		}
		return nil
	})
	if err != nil {
		status, code := inviteFailure(err)
		writeError(w, status, code)
		return
	}

	gid := gameID
	from := userID
	n := &models.Notification{
		UserID:     target,
		Type:       models.NotifGameInvitation,
		FromUserID: &from,
		GameID:     &gid,
	}
	if err := s.Hub.Notify(r.Context(), n); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invited"})
}

func inviteFailure(err error) (int, string) {
	switch err {
	case game.ErrNotInGame:
		return http.StatusForbidden, "not_member"
	case game.ErrGameNotActive:
		return http.StatusConflict, "game_not_joinable"
	case game.ErrGameFull:
		return http.StatusConflict, "game_full"
	case game.ErrAlreadyInGame:
		return http.StatusConflict, "already_member"
	case hub.ErrGameNotFound:
		return http.StatusNotFound, "game_not_found"
	}
	return http.StatusInternalServerError, "internal_error"
}

// Leave unseats the caller from a lobby game.
func (s *Server) Leave(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	err := s.Hub.Do(gameID, true, func(g *game.FiveCrownsGame) error {
		return g.RemovePlayer(userID)
	})
	if err != nil {
		switch err {
		case hub.ErrGameNotFound:
			writeError(w, http.StatusNotFound, "game_not_found")
		case game.ErrNotInGame:
			writeError(w, http.StatusForbidden, "not_member")
		case game.ErrGameNotActive:
			writeError(w, http.StatusConflict, "game_started")
		default:
			writeError(w, http.StatusConflict, "cannot_leave")
		}
		return
	}
	if err := database.RemoveGamePlayer(r.Context(), gameID, userID); err != nil {
		s.Logger.Errorf("unseat %s from %s: %v", userID, gameID, err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// Nudge lets a waiting guest poke the host of a lobby game.
func (s *Server) Nudge(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	var hostID uuid.UUID
	err := s.Hub.Do(gameID, false, func(g *game.FiveCrownsGame) error {
		if g.PlayerByID(userID) == nil {
			return game.ErrNotInGame
		}
		if g.Status != models.GameLobby {
			return game.ErrGameNotActive
		}
		if g.HostID == userID {
			return game.ErrNotYourTurn
		}
		hostID = g.HostID
		return nil
	})
	if err != nil {
		nudgeFailure(w, err)
		return
	}

	s.sendNudge(w, r, hostID, userID, gameID)
}

// NudgePlayer lets any member poke whoever holds the current turn.
func (s *Server) NudgePlayer(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	var target uuid.UUID
	err := s.Hub.Do(gameID, false, func(g *game.FiveCrownsGame) error {
		if g.PlayerByID(userID) == nil {
			return game.ErrNotInGame
		}
		if g.Status != models.GameActive {
			return game.ErrGameNotActive
		}
		current := g.CurrentPlayer()
		if current == nil || current.UserID == userID {
			return game.ErrNotYourTurn
		}
		target = current.UserID
		return nil
	})
	if err != nil {
		nudgeFailure(w, err)
		return
	}

	s.sendNudge(w, r, target, userID, gameID)
}

func nudgeFailure(w http.ResponseWriter, err error) {
	switch err {
	case hub.ErrGameNotFound:
		writeError(w, http.StatusNotFound, "game_not_found")
	case game.ErrNotInGame:
		writeError(w, http.StatusForbidden, "not_member")
	case game.ErrGameNotActive:
		writeError(w, http.StatusConflict, "wrong_status")
	case game.ErrNotYourTurn:
		writeError(w, http.StatusConflict, "cannot_nudge_self")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (s *Server) sendNudge(w http.ResponseWriter, r *http.Request, target, from uuid.UUID, gameID uuid.UUID) {
	gid := gameID
	f := from
	n := &models.Notification{
		UserID:     target,
		Type:       models.NotifGameNudge,
		FromUserID: &f,
		GameID:     &gid,
	}
	if err := s.Hub.Notify(r.Context(), n); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "nudged"})
}

type mediaTokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

// MediaToken mints a media-room token for members of a game.
func (s *Server) MediaToken(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	gameID, ok := gameIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_game_id")
		return
	}

	member, err := database.IsMember(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "not_member")
		return
	}

	token, err := s.Media.MintRoomToken(gameID, userID, true, true)
	if err != nil {
		s.Logger.Errorf("mint media token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, mediaTokenResponse{Token: token, URL: s.Cfg.MediaURL})
}
