package database

import "context"

// schema holds the tables the core requires. EnsureSchema applies it
// idempotently at startup; anything beyond these columns belongs to the
// external facades.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	username TEXT NOT NULL,
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	verify_token TEXT,
	reset_token TEXT,
	reset_expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS friendships (
	user_id UUID NOT NULL REFERENCES users(id),
	friend_id UUID NOT NULL REFERENCES users(id),
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, friend_id)
);

CREATE TABLE IF NOT EXISTS games (
	id UUID PRIMARY KEY,
	status TEXT NOT NULL,
	created_by UUID NOT NULL REFERENCES users(id),
	max_players INT NOT NULL,
	rng_seed BIGINT NOT NULL,
	winner_ids JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_players (
	game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id),
	seat INT NOT NULL,
	joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, user_id)
);

CREATE TABLE IF NOT EXISTS game_events (
	game_id UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	seq INT NOT NULL,
	type TEXT NOT NULL,
	actor_user_id UUID NOT NULL,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, seq)
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id),
	type TEXT NOT NULL,
	from_user_id UUID,
	game_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	status TEXT NOT NULL DEFAULT 'unread'
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_game_players_user ON game_players(user_id);
`

// EnsureSchema creates the required tables if they do not exist.
func EnsureSchema(ctx context.Context) error {
	_, err := DB.Exec(ctx, schema)
	return err
}
