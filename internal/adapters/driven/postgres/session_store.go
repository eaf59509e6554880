package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore using PostgreSQL.
// Unlike the Redis store there is no native TTL, so expiry is enforced
// in queries and stale rows are swept by Cleanup.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateAnonymous creates an empty session with a fresh opaque ID.
func (s *SessionStore) CreateAnonymous(ctx context.Context) (*domain.AuthSession, error) {
	now := time.Now()
	session := &domain.AuthSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}

	query := `
		INSERT INTO auth_sessions (id, created_at, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, session.ID, session.CreatedAt, session.ExpiresAt); err != nil {
		return nil, storeErr("create session", err)
	}
	return session, nil
}

// Get retrieves a session by ID and refreshes its inactivity window.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.AuthSession, error) {
	expiresAt := time.Now().Add(domain.SessionTTL)

	query := `
		UPDATE auth_sessions
		SET expires_at = $2
		WHERE id = $1 AND expires_at > NOW()
		RETURNING id, pending_state, state_expires_at, token, profile, created_at, expires_at
	`

	var (
		session        domain.AuthSession
		pendingState   sql.NullString
		stateExpiresAt sql.NullTime
		tokenJSON      []byte
		profileJSON    []byte
	)
	err := s.db.QueryRowContext(ctx, query, id, expiresAt).Scan(
		&session.ID,
		&pendingState,
		&stateExpiresAt,
		&tokenJSON,
		&profileJSON,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, storeErr("get session", err)
	}

	if pendingState.Valid && stateExpiresAt.Valid && stateExpiresAt.Time.After(time.Now()) {
		session.PendingState = pendingState.String
	}
	if len(tokenJSON) > 0 {
		session.Token = &domain.Token{}
		if err := json.Unmarshal(tokenJSON, session.Token); err != nil {
			return nil, fmt.Errorf("unmarshal token: %w", err)
		}
	}
	if len(profileJSON) > 0 {
		session.Profile = &domain.Profile{}
		if err := json.Unmarshal(profileJSON, session.Profile); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
	}

	return &session, nil
}

// SetPendingState records a CSRF state with its own short expiry.
func (s *SessionStore) SetPendingState(ctx context.Context, id, state string) error {
	query := `
		UPDATE auth_sessions
		SET pending_state = $2, state_expires_at = $3
		WHERE id = $1 AND expires_at > NOW()
	`
	result, err := s.db.ExecContext(ctx, query, id, state, time.Now().Add(domain.PendingStateTTL))
	if err != nil {
		return storeErr("set pending state", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("set pending state", err)
	}
	if rowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// ConsumePendingState atomically compares and clears the pending state.
// The conditional UPDATE is a single statement, so two racing callbacks
// can never both see a row affected.
func (s *SessionStore) ConsumePendingState(ctx context.Context, id, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	query := `
		UPDATE auth_sessions
		SET pending_state = NULL, state_expires_at = NULL
		WHERE id = $1
		  AND pending_state = $2
		  AND state_expires_at > NOW()
		  AND expires_at > NOW()
	`
	result, err := s.db.ExecContext(ctx, query, id, state)
	if err != nil {
		return false, storeErr("consume pending state", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, storeErr("consume pending state", err)
	}
	return rowsAffected == 1, nil
}

// SetAuthenticated persists token and profile in one statement.
func (s *SessionStore) SetAuthenticated(ctx context.Context, id string, token domain.Token, profile domain.Profile) error {
	tokenJSON, err := json.Marshal(&token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	profileJSON, err := json.Marshal(&profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	query := `
		UPDATE auth_sessions
		SET token = $2,
		    profile = $3,
		    pending_state = NULL,
		    state_expires_at = NULL,
		    expires_at = $4
		WHERE id = $1 AND expires_at > NOW()
	`
	result, err := s.db.ExecContext(ctx, query, id, tokenJSON, profileJSON, time.Now().Add(domain.SessionTTL))
	if err != nil {
		return storeErr("set authenticated", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("set authenticated", err)
	}
	if rowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Destroy removes the session. Destroying an unknown session is a no-op.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	query := `DELETE FROM auth_sessions WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return storeErr("destroy session", err)
	}
	return nil
}

// Cleanup removes expired sessions. Run periodically by the server.
func (s *SessionStore) Cleanup(ctx context.Context) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE expires_at <= NOW()`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, storeErr("cleanup sessions", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("cleanup sessions", err)
	}
	return rowsAffected, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
