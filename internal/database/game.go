// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// InsertGame creates the game row and seats the host at seat 0 in one
// transaction.
func InsertGame(ctx context.Context, rec models.GameRecord) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO games (id, status, created_by, max_players, rng_seed)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(ctx, q, rec.ID, rec.Status, rec.CreatedBy, rec.MaxPlayers, rec.RNGSeed); err != nil {
			return err
		}
		seat := `
			INSERT INTO game_players (game_id, user_id, seat)
			VALUES ($1, $2, 0)
		`
		_, err := tx.Exec(ctx, seat, rec.ID, rec.CreatedBy)
		return err
	})
}

// GetGame loads one game row.
func GetGame(ctx context.Context, id uuid.UUID) (*models.GameRecord, error) {
	var rec models.GameRecord
	q := `
	SELECT id, status, created_by, max_players, rng_seed, created_at, finished_at
	FROM games
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&rec.ID, &rec.Status, &rec.CreatedBy, &rec.MaxPlayers,
		&rec.RNGSeed, &rec.CreatedAt, &rec.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListGamesForUser returns every game the user is seated in, newest first.
func ListGamesForUser(ctx context.Context, userID uuid.UUID) ([]models.GameRecord, error) {
	q := `
	SELECT g.id, g.status, g.created_by, g.max_players, g.rng_seed, g.created_at, g.finished_at
	FROM games g
	JOIN game_players gp ON gp.game_id = g.id
	WHERE gp.user_id = $1
	ORDER BY g.created_at DESC
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.GameRecord
	for rows.Next() {
		var rec models.GameRecord
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.CreatedBy, &rec.MaxPlayers,
			&rec.RNGSeed, &rec.CreatedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListActiveGames returns all games still in play, used for rehydration on
// restart.
func ListActiveGames(ctx context.Context) ([]models.GameRecord, error) {
	q := `
	SELECT id, status, created_by, max_players, rng_seed, created_at, finished_at
	FROM games
	WHERE status IN ('lobby', 'active')
	`
	rows, err := DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.GameRecord
	for rows.Next() {
		var rec models.GameRecord
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.CreatedBy, &rec.MaxPlayers,
			&rec.RNGSeed, &rec.CreatedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// SetGameStatus updates the lifecycle column.
func SetGameStatus(ctx context.Context, id uuid.UUID, status models.GameStatus) error {
	q := `UPDATE games SET status=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, status, id)
		return err
	})
}

// FinishGame marks the game finished and records the winners.
func FinishGame(ctx context.Context, id uuid.UUID, winners []uuid.UUID, finishedAt time.Time) error {
	ids := make([]string, len(winners))
	for i, w := range winners {
		ids[i] = w.String()
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	q := `UPDATE games SET status='finished', winner_ids=$1, finished_at=$2 WHERE id=$3`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, data, finishedAt, id)
		return err
	})
}

// DeleteGame removes a lobby game; events and seats cascade.
func DeleteGame(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM games WHERE id=$1 AND status='lobby'`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("game %v is not deletable", id)
		}
		return nil
	})
}

// AddGamePlayer seats a user at the next free seat.
func AddGamePlayer(ctx context.Context, gameID, userID uuid.UUID, seat int) error {
	q := `
		INSERT INTO game_players (game_id, user_id, seat)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id, user_id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, gameID, userID, seat)
		return err
	})
}

// RemoveGamePlayer unseats a user from a lobby game.
func RemoveGamePlayer(ctx context.Context, gameID, userID uuid.UUID) error {
	q := `DELETE FROM game_players WHERE game_id=$1 AND user_id=$2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, gameID, userID)
		return err
	})
}

// ListGamePlayers returns the seating in seat order.
func ListGamePlayers(ctx context.Context, gameID uuid.UUID) ([]models.GamePlayerRow, error) {
	q := `
	SELECT game_id, user_id, seat, joined_at
	FROM game_players
	WHERE game_id=$1
	ORDER BY seat
	`
	rows, err := DB.Query(ctx, q, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.GamePlayerRow
	for rows.Next() {
		var s models.GamePlayerRow
		if err := rows.Scan(&s.GameID, &s.UserID, &s.Seat, &s.JoinedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// IsMember reports whether the user holds a seat in the game.
func IsMember(ctx context.Context, gameID, userID uuid.UUID) (bool, error) {
	q := `SELECT COUNT(*) FROM game_players WHERE game_id=$1 AND user_id=$2`
	var n int
	if err := DB.QueryRow(ctx, q, gameID, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
