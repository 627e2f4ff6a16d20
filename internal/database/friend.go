// internal/database/friend.go

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// InsertFriendRequest inserts a directed pending row. ON CONFLICT DO
// NOTHING gives insert-if-absent semantics under concurrent requests.
func InsertFriendRequest(ctx context.Context, userID, friendID uuid.UUID) error {
	q := `
		INSERT INTO friendships (user_id, friend_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID, friendID)
		return err
	})
}

// AcceptFriend flips the pending row to accepted and upserts the reverse
// accepted row, so the friendship is readable from either direction.
func AcceptFriend(ctx context.Context, requesterID, accepterID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upd := `
			UPDATE friendships
			SET status='accepted'
			WHERE user_id=$1 AND friend_id=$2 AND status='pending'
		`
		ct, err := tx.Exec(ctx, upd, requesterID, accepterID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("no pending friend request from %v to %v", requesterID, accepterID)
		}
		rev := `
			INSERT INTO friendships (user_id, friend_id, status)
			VALUES ($1, $2, 'accepted')
			ON CONFLICT (user_id, friend_id) DO UPDATE SET status='accepted'
		`
		_, err = tx.Exec(ctx, rev, accepterID, requesterID)
		return err
	})
}

// BlockFriend marks the directed row blocked, creating it if needed.
func BlockFriend(ctx context.Context, userID, blockedID uuid.UUID) error {
	q := `
		INSERT INTO friendships (user_id, friend_id, status)
		VALUES ($1, $2, 'blocked')
		ON CONFLICT (user_id, friend_id) DO UPDATE SET status='blocked'
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID, blockedID)
		return err
	})
}

// ListFriends returns every friendship row touching the user, pending and
// accepted alike, from both directions.
func ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	q := `
		SELECT user_id, friend_id, status, created_at
		FROM friendships
		WHERE user_id=$1 OR friend_id=$1
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fs []models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.FriendID, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	return fs, rows.Err()
}

// AreFriends reports whether an accepted row exists in either direction.
// Acceptance writes two rows, so this must be a get-many + non-empty
// predicate rather than a single-row lookup.
func AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	q := `
		SELECT COUNT(*)
		FROM friendships
		WHERE status='accepted'
		  AND ((user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1))
	`
	var n int
	if err := DB.QueryRow(ctx, q, a, b).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveFriend hard deletes both directions of the relation.
func RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	q := `
		DELETE FROM friendships
		WHERE (user_id=$1 AND friend_id=$2)
		   OR (user_id=$2 AND friend_id=$1)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID, friendID)
		return err
	})
}
