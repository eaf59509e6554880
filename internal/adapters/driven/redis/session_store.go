package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

const (
	// Key prefixes for Redis
	sessionPrefix = "authsession:"
	statePrefix   = "authsession:state:"
)

// consumeStateLua atomically compares and clears a pending state.
// KEYS[1] = state key, KEYS[2] = session key, ARGV[1] = supplied state.
// Returns 1 only when the session exists and the stored state equals
// the supplied value; the state is deleted in the same script, so two
// racing callbacks can never both observe 1.
var consumeStateLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then
  return 0
end
local stored = redis.call('GET', KEYS[1])
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// SessionStore implements driven.SessionStore using Redis.
// Sessions and pending states expire through Redis TTLs; reads refresh
// the session TTL so the window tracks inactivity.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string { return sessionPrefix + id }
func stateKey(id string) string   { return statePrefix + id }

// CreateAnonymous creates an empty session with a fresh opaque ID.
func (s *SessionStore) CreateAnonymous(ctx context.Context) (*domain.AuthSession, error) {
	now := time.Now()
	session := &domain.AuthSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), data, domain.SessionTTL).Err(); err != nil {
		return nil, storeErr("create session", err)
	}
	return session, nil
}

// Get retrieves a session by ID and refreshes its inactivity window.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.AuthSession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := s.client.Get(ctx, stateKey(id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, storeErr("get pending state", err)
	}
	session.PendingState = state

	// Sliding expiry: reading the session keeps it alive. A bare
	// EXPIRE refreshes the window without rewriting the blob, so a
	// concurrent SetAuthenticated or Destroy is never overwritten by
	// a stale copy read here.
	if err := s.client.Expire(ctx, sessionKey(id), domain.SessionTTL).Err(); err != nil {
		return nil, storeErr("refresh session", err)
	}
	session.ExpiresAt = time.Now().Add(domain.SessionTTL)

	return session, nil
}

// SetPendingState records a CSRF state with its own short TTL.
// A new login attempt replaces any previous pending state.
func (s *SessionStore) SetPendingState(ctx context.Context, id, state string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	if err := s.client.Set(ctx, stateKey(id), state, domain.PendingStateTTL).Err(); err != nil {
		return storeErr("set pending state", err)
	}
	return nil
}

// ConsumePendingState atomically compares and clears the pending state.
func (s *SessionStore) ConsumePendingState(ctx context.Context, id, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	res, err := consumeStateLua.Run(ctx, s.client, []string{stateKey(id), sessionKey(id)}, state).Int()
	if err != nil {
		return false, storeErr("consume pending state", err)
	}
	return res == 1, nil
}

// SetAuthenticated persists token and profile together and drops any
// leftover pending state in the same pipeline.
func (s *SessionStore) SetAuthenticated(ctx context.Context, id string, token domain.Token, profile domain.Profile) error {
	session, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	session.Token = &token
	session.Profile = &profile
	session.PendingState = ""
	session.ExpiresAt = time.Now().Add(domain.SessionTTL)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(id), data, domain.SessionTTL)
	pipe.Del(ctx, stateKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("set authenticated", err)
	}
	return nil
}

// Destroy removes the session and its pending state. Destroying an
// unknown session is a no-op.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id), stateKey(id)).Err(); err != nil {
		return storeErr("destroy session", err)
	}
	return nil
}

// load fetches and decodes the session blob without the pending state.
func (s *SessionStore) load(ctx context.Context, id string) (*domain.AuthSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, storeErr("get session", err)
	}

	var session domain.AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// storeErr folds backend failures into the store-unavailable class.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
