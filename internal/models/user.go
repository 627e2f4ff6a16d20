package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"-"`
	Username string    `json:"username"`

	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserStats aggregates a user's lifetime results for /users/me/stats.
type UserStats struct {
	GamesPlayed int `json:"games_played"`
	GamesWon    int `json:"games_won"`
}
