package services

import (
	"crypto/rand"
	"encoding/base64"
)

// stateTokenBytes gives 256 bits of entropy per login attempt.
const stateTokenBytes = 32

// GenerateStateToken returns a cryptographically unguessable, URL-safe
// CSRF state token. A failure to read entropy is a fatal integrity
// failure; collisions are negligible by construction, not handled.
func GenerateStateToken() string {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
