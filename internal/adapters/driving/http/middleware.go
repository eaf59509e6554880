package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// Context keys
type contextKey string

const (
	sessionContextKey contextKey = "session"
	authContextKey    contextKey = "auth_context"
)

// SessionMiddleware resolves the browser cookie to a server-side
// session, creating an anonymous one when none exists.
type SessionMiddleware struct {
	sessions driven.SessionStore
	cookies  *CookieManager
	logger   zerolog.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(sessions driven.SessionStore, cookies *CookieManager, logger zerolog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// EnsureSession attaches a session to every request. An invalid or
// expired cookie is treated the same as no cookie: a fresh anonymous
// session replaces it.
func (m *SessionMiddleware) EnsureSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.resolveSession(w, r)
		if err != nil {
			m.logger.Error().Err(err).Msg("session store unreachable")
			writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) resolveSession(w http.ResponseWriter, r *http.Request) (*domain.AuthSession, error) {
	if sessionID, ok := m.cookies.Read(r); ok {
		session, err := m.sessions.Get(r.Context(), sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}

	session, err := m.sessions.CreateAnonymous(r.Context())
	if err != nil {
		return nil, err
	}
	if err := m.cookies.Write(w, session.ID); err != nil {
		return nil, err
	}
	return session, nil
}

// RequireAuth gates JSON API routes: unauthenticated requests get a 401
// and authenticated ones proceed with a domain.AuthContext attached.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r.Context())
		if session == nil || !session.IsAuthenticated() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, &domain.AuthContext{
			SessionID:   session.ID,
			AccessToken: session.Token.AccessToken,
			Profile:     session.Profile,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthPage gates browser pages: unauthenticated requests are
// redirected to the login page instead of receiving a JSON error.
func (m *SessionMiddleware) RequireAuthPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r.Context())
		if session == nil || !session.IsAuthenticated() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, &domain.AuthContext{
			SessionID:   session.ID,
			AccessToken: session.Token.AccessToken,
			Profile:     session.Profile,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSession retrieves the session from request context
func GetSession(ctx context.Context) *domain.AuthSession {
	if ctx == nil {
		return nil
	}
	session, ok := ctx.Value(sessionContextKey).(*domain.AuthSession)
	if !ok {
		return nil
	}
	return session
}

// GetAuthContext retrieves the auth context from request context
func GetAuthContext(ctx context.Context) *domain.AuthContext {
	if ctx == nil {
		return nil
	}
	authCtx, ok := ctx.Value(authContextKey).(*domain.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// Logging middleware

// LoggingMiddleware logs HTTP requests
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware
func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Handler wraps an http.Handler with request logging
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Recovery middleware

// RecoveryMiddleware recovers from panics
type RecoveryMiddleware struct {
	logger zerolog.Logger
}

// NewRecoveryMiddleware creates a new RecoveryMiddleware
func NewRecoveryMiddleware(logger zerolog.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger}
}

// Handler wraps an http.Handler with panic recovery
func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error().Interface("panic", err).Str("path", r.URL.Path).Msg("panic recovered")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Security headers middleware

// SecurityHeadersMiddleware sets baseline browser security headers
type SecurityHeadersMiddleware struct{}

// NewSecurityHeadersMiddleware creates a new SecurityHeadersMiddleware
func NewSecurityHeadersMiddleware() *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{}
}

// Handler wraps an http.Handler with security headers
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
