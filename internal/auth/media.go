// internal/auth/media.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// mediaTokenTTL bounds how long a minted room token stays usable.
const mediaTokenTTL = 2 * time.Hour

// MediaMinter issues room-access tokens for the external media service.
// The server never connects to the media plane; it only signs grants with
// the shared media secret, which is distinct from the session secret.
type MediaMinter struct {
	key    string
	secret []byte
}

func NewMediaMinter(key, secret string) *MediaMinter {
	return &MediaMinter{key: key, secret: []byte(secret)}
}

// MintRoomToken signs a token granting the user access to the game's
// media room. Membership in the game must be checked by the caller.
func (m *MediaMinter) MintRoomToken(gameID, userID uuid.UUID, canPublish, canSubscribe bool) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("media secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": m.key,
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(mediaTokenTTL).Unix(),
		"video": map[string]interface{}{
			"room":         fmt.Sprintf("game-%s", gameID),
			"roomJoin":     true,
			"canPublish":   canPublish,
			"canSubscribe": canSubscribe,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
