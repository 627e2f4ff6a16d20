package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendStatus enumerates the states a friendship row can be in.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
	FriendBlocked  FriendStatus = "blocked"
)

// Friend is one directed row in the friendships table. Acceptance writes an
// accepted row in each direction, so callers checking friendship must fetch
// both directions and test for any accepted row rather than exactly one.
type Friend struct {
	UserID    uuid.UUID    `json:"user_id"`
	FriendID  uuid.UUID    `json:"friend_id"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
