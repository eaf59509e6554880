package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// Ensure Adapter implements SessionCodec
var _ driven.SessionCodec = (*Adapter)(nil)

// sessionClaims carries the session reference inside the cookie JWT
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Adapter signs session cookie tokens with HMAC-SHA256
type Adapter struct {
	secret []byte
}

// NewAdapter creates a new codec with the given signing secret
func NewAdapter(secret string) *Adapter {
	return &Adapter{secret: []byte(secret)}
}

// Encode produces a signed JWT carrying the session ID
func (a *Adapter) Encode(sessionID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(domain.SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Decode verifies a JWT and extracts the session ID
func (a *Adapter) Decode(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session token claims")
	}
	return claims.SessionID, nil
}
