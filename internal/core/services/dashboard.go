package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driving"
)

// Ensure dashboardService implements DashboardService
var _ driving.DashboardService = (*dashboardService)(nil)

// dashboardService implements the DashboardService interface. It is a
// thin pass-through to the resource API under the caller's access
// token; FACEIT business semantics stay on the provider side.
type dashboardService struct {
	api driven.ResourceAPI
	log zerolog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(api driven.ResourceAPI, logger zerolog.Logger) driving.DashboardService {
	return &dashboardService{api: api, log: logger}
}

// requireAuth rejects calls without a usable access token. Handlers
// normally guarantee one, but the service guards its own contract.
func requireAuth(auth *domain.AuthContext) error {
	if auth == nil || auth.AccessToken == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *dashboardService) GetHub(ctx context.Context, auth *domain.AuthContext, hubID string) (*domain.Hub, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	if hubID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.api.GetHub(ctx, auth.AccessToken, hubID)
}

func (s *dashboardService) GetHubMatch(ctx context.Context, auth *domain.AuthContext, hubID, matchID string) (*domain.Match, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	if hubID == "" || matchID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.api.GetHubMatch(ctx, auth.AccessToken, hubID, matchID)
}

func (s *dashboardService) ListConfigurationMatches(ctx context.Context, auth *domain.AuthContext, hubID string) ([]*domain.Match, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	if hubID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.api.ListConfigurationMatches(ctx, auth.AccessToken, hubID)
}

func (s *dashboardService) GetChampionship(ctx context.Context, auth *domain.AuthContext, championshipID string) (*domain.Championship, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	if championshipID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.api.GetChampionship(ctx, auth.AccessToken, championshipID)
}

func (s *dashboardService) RehostChampionship(ctx context.Context, auth *domain.AuthContext, req driving.RehostRequest) (*driving.RehostResponse, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	if req.EventID == "" || req.GameID == "" {
		return nil, domain.ErrInvalidInput
	}

	if err := s.api.RehostChampionship(ctx, auth.AccessToken, req.EventID, req.GameID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", auth.SessionID).
		Str("event_id", req.EventID).
		Str("game_id", req.GameID).
		Msg("championship rehosted")

	return &driving.RehostResponse{
		Message: fmt.Sprintf("Rehosted event %s for game %s", req.EventID, req.GameID),
	}, nil
}

func (s *dashboardService) CancelChampionship(ctx context.Context, auth *domain.AuthContext, req driving.CancelRequest) (*driving.CancelResponse, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	if req.EventID == "" {
		return nil, domain.ErrInvalidInput
	}

	if err := s.api.CancelChampionship(ctx, auth.AccessToken, req.EventID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", auth.SessionID).
		Str("event_id", req.EventID).
		Msg("championship cancelled")

	return &driving.CancelResponse{
		Message: fmt.Sprintf("Canceled event %s", req.EventID),
	}, nil
}
