package driven

import (
	"context"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
)

// ResourceAPI is the protected FACEIT resource surface, invoked only for
// authenticated sessions with the session's bearer access token. A
// rejected token surfaces as domain.ErrSessionStale; the caller decides
// what to do with a stale session.
type ResourceAPI interface {
	// GetHub retrieves a hub by ID.
	GetHub(ctx context.Context, accessToken, hubID string) (*domain.Hub, error)

	// GetHubMatch retrieves one match within a hub.
	GetHubMatch(ctx context.Context, accessToken, hubID, matchID string) (*domain.Match, error)

	// ListConfigurationMatches lists the hub's matches currently in
	// configuration mode.
	ListConfigurationMatches(ctx context.Context, accessToken, hubID string) ([]*domain.Match, error)

	// GetChampionship retrieves a championship by ID.
	GetChampionship(ctx context.Context, accessToken, championshipID string) (*domain.Championship, error)

	// RehostChampionship requests a rehost of the event for a game.
	RehostChampionship(ctx context.Context, accessToken, eventID, gameID string) error

	// CancelChampionship cancels the event.
	CancelChampionship(ctx context.Context, accessToken, eventID string) error
}
