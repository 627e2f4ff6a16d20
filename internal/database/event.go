// internal/database/event.go
package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// AppendGameEvent appends one event row. The caller (the game's command
// queue) assigns seq; because only that queue writes a given game's events,
// seq numbers are gap-free and totally ordered. Events are persisted
// before the resulting state is broadcast.
func AppendGameEvent(ctx context.Context, ev models.GameEvent) error {
	q := `
		INSERT INTO game_events (game_id, seq, type, actor_user_id, payload)
		VALUES ($1, $2, $3, $4, $5)
	`
	var payload []byte
	if ev.Payload != nil {
		payload = ev.Payload
	} else {
		payload = json.RawMessage(`{}`)
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, ev.GameID, ev.Seq, ev.Type, ev.ActorUserID, payload)
		return err
	})
}

// ListGameEvents returns a game's full event log in seq order for replay.
func ListGameEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error) {
	q := `
	SELECT game_id, seq, type, actor_user_id, payload, created_at
	FROM game_events
	WHERE game_id=$1
	ORDER BY seq
	`
	rows, err := DB.Query(ctx, q, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.GameEvent
	for rows.Next() {
		var ev models.GameEvent
		if err := rows.Scan(&ev.GameID, &ev.Seq, &ev.Type, &ev.ActorUserID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
