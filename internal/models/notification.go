package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType names the out-of-band events delivered to a user
// regardless of which game, if any, they are currently viewing.
type NotificationType string

const (
	NotifGameInvitation NotificationType = "gameInvitation"
	NotifGameDeleted    NotificationType = "gameDeleted"
	NotifFriendRequest  NotificationType = "friendRequest"
	NotifFriendAccepted NotificationType = "friendAccepted"
	NotifFriendBlocked  NotificationType = "friendBlocked"
	NotifGameNudge      NotificationType = "gameNudge"
)

// NotificationStatus tracks read state.
type NotificationStatus string

const (
	NotifUnread NotificationStatus = "unread"
	NotifRead   NotificationStatus = "read"
)

// Notification is a persisted row; it is also the wire payload of
// evt.notification pushes.
type Notification struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	Type       NotificationType   `json:"type"`
	FromUserID *uuid.UUID         `json:"from_user_id,omitempty"`
	GameID     *uuid.UUID         `json:"game_id,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	Status     NotificationStatus `json:"status"`
}
