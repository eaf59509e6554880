package driving

import (
	"context"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
)

// DashboardService exposes the protected FACEIT operations available to
// an authenticated session. Every call runs under the caller's access
// token; a token the API no longer accepts surfaces as
// domain.ErrSessionStale.
type DashboardService interface {
	GetHub(ctx context.Context, auth *domain.AuthContext, hubID string) (*domain.Hub, error)
	GetHubMatch(ctx context.Context, auth *domain.AuthContext, hubID, matchID string) (*domain.Match, error)
	ListConfigurationMatches(ctx context.Context, auth *domain.AuthContext, hubID string) ([]*domain.Match, error)
	GetChampionship(ctx context.Context, auth *domain.AuthContext, championshipID string) (*domain.Championship, error)
	RehostChampionship(ctx context.Context, auth *domain.AuthContext, req RehostRequest) (*RehostResponse, error)
	CancelChampionship(ctx context.Context, auth *domain.AuthContext, req CancelRequest) (*CancelResponse, error)
}

// RehostRequest asks for an event to be rehosted for a game.
type RehostRequest struct {
	EventID string `json:"eventId"`
	GameID  string `json:"gameId"`
}

// RehostResponse confirms a rehost.
type RehostResponse struct {
	Message string `json:"message"`
}

// CancelRequest asks for an event to be cancelled.
type CancelRequest struct {
	EventID string `json:"eventId"`
}

// CancelResponse confirms a cancellation.
type CancelResponse struct {
	Message string `json:"message"`
}
