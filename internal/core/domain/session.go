package domain

import (
	"encoding/json"
	"time"
)

// SessionTTL is the inactivity window after which a session expires.
// Expiry is enforced by the session store, not by callers.
const SessionTTL = 24 * time.Hour

// PendingStateTTL bounds how long a login attempt may sit between the
// redirect to the provider and the callback.
const PendingStateTTL = 10 * time.Minute

// Token is the result of one successful authorization-code exchange.
// It is never mutated, only replaced.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Profile is the authenticated user's identity as reported by FACEIT.
// Raw keeps the full userinfo document for the dashboard views.
type Profile struct {
	ID       string          `json:"id"`
	Nickname string          `json:"nickname"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// AuthSession is a server-side session record keyed by a browser-held
// opaque identifier. Its state is derived from its fields:
// anonymous (nothing set), pending login (PendingState set), or
// authenticated (Token and Profile set, PendingState clear).
type AuthSession struct {
	ID           string    `json:"id"`
	PendingState string    `json:"pending_state,omitempty"`
	Token        *Token    `json:"token,omitempty"`
	Profile      *Profile  `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired checks if the session has expired.
func (s *AuthSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsAuthenticated reports whether the handshake completed for this session.
func (s *AuthSession) IsAuthenticated() bool {
	return s.Token != nil && s.Profile != nil && !s.IsExpired()
}

// IsAnonymous reports whether the session carries no handshake state at all.
func (s *AuthSession) IsAnonymous() bool {
	return s.PendingState == "" && s.Token == nil
}

// AuthContext contains authenticated session info for request context.
type AuthContext struct {
	SessionID   string   `json:"session_id"`
	AccessToken string   `json:"-"`
	Profile     *Profile `json:"profile"`
}
