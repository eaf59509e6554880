package http

import (
	"net/http"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// SessionCookieName is the fixed name of the browser session cookie.
const SessionCookieName = "faceit_sid"

// CookieManager reads and writes the signed session cookie. The cookie
// value is a signed token carrying only the session ID; tokens and
// profile data never leave the server side.
type CookieManager struct {
	codec  driven.SessionCodec
	secure bool
}

// NewCookieManager creates a CookieManager. secure should be true in
// production so the cookie is never sent over plain HTTP.
func NewCookieManager(codec driven.SessionCodec, secure bool) *CookieManager {
	return &CookieManager{codec: codec, secure: secure}
}

// Write sets the session cookie for the given session ID.
func (c *CookieManager) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.codec.Encode(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(domain.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read extracts the session ID from the request cookie. A missing,
// malformed, or tampered cookie returns ok=false.
func (c *CookieManager) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	sessionID, err := c.codec.Decode(cookie.Value)
	if err != nil {
		return "", false
	}
	return sessionID, true
}

// Clear expires the session cookie.
func (c *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
