// internal/auth/session.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeSession = "session"
	tokenTypeRefresh = "refresh"
)

// Service mints and verifies the signed bearer tokens carried on every
// REST request and on the socket hello. Sessions default to 7 days with a
// 30-day refresh counterpart; both are HS256 over the configured
// session-signing secret.
type Service struct {
	secret     []byte
	sessionTTL time.Duration
	refreshTTL time.Duration
}

func NewService(secret string, sessionTTLDays, refreshTTLDays int) *Service {
	return &Service{
		secret:     []byte(secret),
		sessionTTL: time.Duration(sessionTTLDays) * 24 * time.Hour,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

func (s *Service) mint(userID uuid.UUID, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"typ": typ,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// MintSession creates the short-lived bearer token.
func (s *Service) MintSession(userID uuid.UUID) (string, error) {
	return s.mint(userID, tokenTypeSession, s.sessionTTL)
}

// MintRefresh creates the refresh counterpart.
func (s *Service) MintRefresh(userID uuid.UUID) (string, error) {
	return s.mint(userID, tokenTypeRefresh, s.refreshTTL)
}

func (s *Service) verify(tokenString, wantType string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid jwt claims")
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return uuid.Nil, fmt.Errorf("wrong token type %q", typ)
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing sub in jwt")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in jwt: %w", err)
	}
	return userID, nil
}

// VerifySession checks signature, expiry, and type of a session token and
// returns the embedded user ID.
func (s *Service) VerifySession(tokenString string) (uuid.UUID, error) {
	return s.verify(tokenString, tokenTypeSession)
}

// VerifyRefresh does the same for refresh tokens.
func (s *Service) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	return s.verify(tokenString, tokenTypeRefresh)
}
