package driven

import (
	"context"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
)

// SessionStore handles auth session persistence (Redis or PostgreSQL).
// The store exclusively owns session records: callers read and mutate
// through this API and never hold long-lived copies. Every record
// expires after domain.SessionTTL of inactivity; expiry is enforced
// here, not by the orchestrator. Backend failures are reported as
// domain.ErrStoreUnavailable.
type SessionStore interface {
	// CreateAnonymous creates an empty session and returns it.
	CreateAnonymous(ctx context.Context) (*domain.AuthSession, error)

	// Get retrieves a session by ID.
	// Returns domain.ErrSessionNotFound for unknown or expired IDs.
	Get(ctx context.Context, id string) (*domain.AuthSession, error)

	// SetPendingState records a CSRF state token awaiting callback.
	// The state expires after domain.PendingStateTTL. Starting a new
	// login replaces any previous pending state.
	SetPendingState(ctx context.Context, id, state string) error

	// ConsumePendingState atomically compares and clears the pending
	// state. It returns true, and clears, only when the stored value
	// equals the supplied one. The compare-and-clear is a single store
	// operation: two callbacks racing on the same session cannot both
	// observe true.
	ConsumePendingState(ctx context.Context, id, state string) (bool, error)

	// SetAuthenticated persists token and profile in one step and
	// clears any pending state. A session is never left with a token
	// but no profile, or the reverse.
	SetAuthenticated(ctx context.Context, id string, token domain.Token, profile domain.Profile) error

	// Destroy removes a session. Destroying an unknown session is a
	// no-op success.
	Destroy(ctx context.Context, id string) error
}
