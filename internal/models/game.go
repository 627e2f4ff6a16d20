package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a game row.
type GameStatus string

const (
	GameLobby    GameStatus = "lobby"
	GameActive   GameStatus = "active"
	GameFinished GameStatus = "finished"
)

// GameRecord is the persisted games row; live turn state lives in the
// in-memory engine and the event log.
type GameRecord struct {
	ID         uuid.UUID  `json:"id"`
	Status     GameStatus `json:"status"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	MaxPlayers int        `json:"max_players"`
	RNGSeed    int64      `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// GamePlayerRow is one seat assignment in game_players.
type GamePlayerRow struct {
	GameID   uuid.UUID `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	Seat     int       `json:"seat"`
	JoinedAt time.Time `json:"joined_at"`
}

// GameEvent is one appended row of the per-game event log. Seq is gap-free
// and totally ordered within a game.
type GameEvent struct {
	GameID      uuid.UUID       `json:"game_id"`
	Seq         int             `json:"seq"`
	Type        string          `json:"type"`
	ActorUserID uuid.UUID       `json:"actor_user_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}
