package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jbbjarnason/fivesuitsrummy/internal/auth"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// CreateUser hashes the password and inserts the row. The caller's plain
// password is replaced by its argon2id hash.
func CreateUser(ctx context.Context, user *models.User, verifyToken string) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.CreateHash(user.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, email, password, username, email_verified, verify_token)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Email, user.Password, user.Username,
			user.EmailVerified, verifyToken,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, email, password, username, email_verified, created_at
	FROM users
	WHERE email=$1
	`
	err := DB.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Password, &u.Username, &u.EmailVerified, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, email, password, username, email_verified, created_at
	FROM users
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Password, &u.Username, &u.EmailVerified, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthenticateUser verifies credentials and returns the user on success.
func AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return nil, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

// VerifyEmail consumes a verification token, marking the account verified.
func VerifyEmail(ctx context.Context, token string) error {
	q := `
	UPDATE users
	SET email_verified=TRUE, verify_token=NULL
	WHERE verify_token=$1
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, token)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("no user matches verification token")
		}
		return nil
	})
}

// SetResetToken stores a single-use password-reset token with an expiry.
func SetResetToken(ctx context.Context, email, token string, expires time.Time) error {
	q := `
	UPDATE users
	SET reset_token=$1, reset_expires_at=$2
	WHERE email=$3
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, token, expires, email)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("no user with email %q", email)
		}
		return nil
	})
}

// ResetPassword consumes an unexpired reset token and replaces the hash.
func ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := auth.CreateHash(newPassword, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	q := `
	UPDATE users
	SET password=$1, reset_token=NULL, reset_expires_at=NULL
	WHERE reset_token=$2 AND reset_expires_at > NOW()
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, hash, token)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("reset token invalid or expired")
		}
		return nil
	})
}

// SearchUsers finds users by username or email prefix for the friends UI.
func SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := `
	SELECT id, email, password, username, email_verified, created_at
	FROM users
	WHERE username ILIKE $1 || '%' OR email ILIKE $1 || '%'
	ORDER BY username
	LIMIT $2
	`
	rows, err := DB.Query(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.EmailVerified, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Password = ""
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserStats aggregates games played and won for /users/me/stats.
func GetUserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	var stats models.UserStats
	q := `
	SELECT COUNT(*) FILTER (WHERE g.status = 'finished'),
	       COUNT(*) FILTER (WHERE g.status = 'finished' AND g.winner_ids @> to_jsonb(ARRAY[$1::text]))
	FROM game_players gp
	JOIN games g ON g.id = gp.game_id
	WHERE gp.user_id = $1
	`
	err := DB.QueryRow(ctx, q, userID).Scan(&stats.GamesPlayed, &stats.GamesWon)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
