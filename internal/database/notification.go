// internal/database/notification.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// InsertNotification persists a row. Every notification is persisted even
// when the target has live sockets, so late-connecting clients can fetch
// the history.
func InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate notification id: %w", err)
		}
		n.ID = id
	}
	if n.Status == "" {
		n.Status = models.NotifUnread
	}
	q := `
		INSERT INTO notifications (id, user_id, type, from_user_id, game_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, n.ID, n.UserID, n.Type, n.FromUserID, n.GameID, n.Status)
		return err
	})
}

// ListNotifications returns the user's notifications, newest first.
func ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	q := `
	SELECT id, user_id, type, from_user_id, game_id, created_at, status
	FROM notifications
	WHERE user_id=$1
	ORDER BY created_at DESC
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ns []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.FromUserID, &n.GameID, &n.CreatedAt, &n.Status); err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, rows.Err()
}

// HasGameInvitation reports whether the user holds an invitation to the
// game. Socket-level lobby joins are gated on this; only the inviter path
// (an accepted friend who is a member) creates these rows.
func HasGameInvitation(ctx context.Context, userID, gameID uuid.UUID) (bool, error) {
	q := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id=$1 AND game_id=$2 AND type=$3
	`
	var n int
	if err := DB.QueryRow(ctx, q, userID, gameID, models.NotifGameInvitation).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkNotificationsRead flips the given rows to read for the user.
func MarkNotificationsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	q := `
		UPDATE notifications
		SET status='read'
		WHERE user_id=$1 AND id = ANY($2)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID, ids)
		return err
	})
}

// DeleteNotification removes one of the user's notifications.
func DeleteNotification(ctx context.Context, userID, id uuid.UUID) error {
	q := `DELETE FROM notifications WHERE user_id=$1 AND id=$2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("notification %v not found", id)
		}
		return nil
	})
}
