package driven

// SessionCodec signs and verifies the opaque session reference that
// travels in the browser cookie. The cookie never carries tokens or
// profile data, only a session ID.
type SessionCodec interface {
	// Encode produces a signed token carrying the session ID.
	Encode(sessionID string) (string, error)

	// Decode verifies a token and returns the session ID it carries.
	// Tampered or malformed tokens return an error; callers treat that
	// the same as an absent cookie.
	Decode(token string) (string, error)
}
