package auth

import (
	"casehub-auth-svc/src/internal/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the boundary carries between
// requests. The session id inside stays the opaque store key; the JWT is
// only its transport.
type Claims struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs an access token for an established session.
func IssueAccessToken(cfg *config.SecuritySettings, userID, sessionID, email, role string) (string, error) {
	ttl := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		SessionID: sessionID,
		Email:     email,
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JwtKey))
}
