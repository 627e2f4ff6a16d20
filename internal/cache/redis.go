// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
// It stays nil when Redis is not configured, in which case publishing is a
// no-op.
var Rdb *redis.Client

// EventQueueName is the Redis list downstream consumers (analytics,
// archival) drain. The authoritative log lives in Postgres; this mirror is
// best effort.
const EventQueueName = "fivecrowns_events"

// GameEventRecord is the shape pushed onto the mirror queue, one entry per
// committed game event.
type GameEventRecord struct {
	GameID      uuid.UUID       `json:"game_id"`
	Seq         int             `json:"seq"`
	ActorUserID uuid.UUID       `json:"actor_user_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client and pings it.
func ConnectRedis(addr string, db int) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishGameEvent serializes the record and pushes it onto the mirror
// queue. Failures here never roll back the Postgres append.
func PublishGameEvent(ctx context.Context, record GameEventRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameEventRecord: %w", err)
	}
	if err := Rdb.RPush(ctx, EventQueueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", EventQueueName, err)
	}
	return nil
}
