// internal/auth/session_test.go
package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	svc := NewService("test-secret", 7, 30)
	userID := uuid.New()

	token, err := svc.MintSession(userID)
	require.NoError(t, err)

	got, err := svc.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRefreshRoundTrip(t *testing.T) {
	svc := NewService("test-secret", 7, 30)
	userID := uuid.New()

	token, err := svc.MintRefresh(userID)
	require.NoError(t, err)

	got, err := svc.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenTypeEnforced(t *testing.T) {
	svc := NewService("test-secret", 7, 30)
	userID := uuid.New()

	session, err := svc.MintSession(userID)
	require.NoError(t, err)
	refresh, err := svc.MintRefresh(userID)
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(session)
	assert.Error(t, err)
	_, err = svc.VerifySession(refresh)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := NewService("secret-a", 7, 30).MintSession(uuid.New())
	require.NoError(t, err)

	_, err = NewService("secret-b", 7, 30).VerifySession(token)
	assert.Error(t, err)
}

func TestExpiredSessionRejected(t *testing.T) {
	svc := NewService("test-secret", 7, 30)
	svc.sessionTTL = -time.Hour

	token, err := svc.MintSession(uuid.New())
	require.NoError(t, err)

	_, err = svc.VerifySession(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewService("test-secret", 7, 30)
	_, err := svc.VerifySession("not-a-jwt")
	assert.Error(t, err)
}

func TestMediaTokenClaims(t *testing.T) {
	minter := NewMediaMinter("api-key", "media-secret")
	gameID := uuid.New()
	userID := uuid.New()

	token, err := minter.MintRoomToken(gameID, userID, true, false)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("media-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)

	assert.Equal(t, "api-key", claims["iss"])
	assert.Equal(t, userID.String(), claims["sub"])
	video := claims["video"].(map[string]interface{})
	assert.Equal(t, "game-"+gameID.String(), video["room"])
	assert.Equal(t, true, video["canPublish"])
	assert.Equal(t, false, video["canSubscribe"])

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(2*60*60), exp-iat)
}

func TestMediaMinterRequiresSecret(t *testing.T) {
	minter := NewMediaMinter("api-key", "")
	_, err := minter.MintRoomToken(uuid.New(), uuid.New(), true, true)
	assert.Error(t, err)
}
