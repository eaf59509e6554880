package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driving"
)

// Ensure authFlowService implements AuthFlowService
var _ driving.AuthFlowService = (*authFlowService)(nil)

// AuthFlowConfig holds dependencies for the auth flow service.
type AuthFlowConfig struct {
	// Sessions owns all session records.
	Sessions driven.SessionStore

	// Provider performs the code exchange and profile fetch.
	Provider driven.IdentityProvider

	// Logger receives structured flow events. Token material is never
	// logged.
	Logger zerolog.Logger
}

// authFlowService implements the AuthFlowService interface.
type authFlowService struct {
	sessions driven.SessionStore
	provider driven.IdentityProvider
	log      zerolog.Logger
}

// NewAuthFlowService creates a new auth flow service.
func NewAuthFlowService(cfg AuthFlowConfig) driving.AuthFlowService {
	return &authFlowService{
		sessions: cfg.Sessions,
		provider: cfg.Provider,
		log:      cfg.Logger,
	}
}

// StartLogin moves the session to the pending-login state and returns
// the provider authorization URL. Starting a login from an already
// authenticated session simply opens a fresh attempt.
func (s *authFlowService) StartLogin(ctx context.Context, sessionID string) (*driving.StartLoginResponse, error) {
	state := GenerateStateToken()

	if err := s.sessions.SetPendingState(ctx, sessionID, state); err != nil {
		return nil, err
	}

	u := s.provider.AuthorizationURL(state)
	s.log.Info().Str("session_id", sessionID).Msg("redirecting to provider authorization endpoint")

	return &driving.StartLoginResponse{
		AuthorizationURL: u,
		State:            state,
	}, nil
}

// HandleCallback completes the handshake. The checks run in a fixed
// order: provider error, missing code, state consumption, exchange,
// profile fetch, persistence. State consumption happens strictly before
// the exchange and is single-use; a replayed callback can never succeed
// twice. Any failure leaves the session anonymous.
func (s *authFlowService) HandleCallback(ctx context.Context, sessionID string, req driving.CallbackRequest) (*domain.Profile, error) {
	if req.Error != "" {
		s.log.Warn().
			Str("session_id", sessionID).
			Str("provider_error", req.Error).
			Str("provider_error_description", req.ErrorDescription).
			Msg("provider reported an error on callback")
		return nil, &driving.FlowError{Code: driving.ErrFlowProviderError.Code, Description: req.ErrorDescription}
	}

	if req.Code == "" {
		s.log.Warn().Str("session_id", sessionID).Msg("callback without authorization code")
		return nil, driving.ErrFlowMissingCode
	}

	ok, err := s.sessions.ConsumePendingState(ctx, sessionID, req.State)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Mismatched, missing, or already-consumed state. Possible CSRF
		// or a replayed callback; no token endpoint call is made.
		s.log.Warn().Str("session_id", sessionID).Msg("state verification failed on callback")
		return nil, driving.ErrFlowInvalidState
	}

	token, err := s.exchangeCode(ctx, req.Code)
	if err != nil {
		var provErr *domain.ProviderError
		if errors.As(err, &provErr) {
			s.log.Warn().
				Str("session_id", sessionID).
				Str("provider_error", provErr.Code).
				Msg("token exchange rejected by provider")
			return nil, &driving.FlowError{Code: driving.ErrFlowProviderError.Code, Description: provErr.Description}
		}
		s.log.Error().Str("session_id", sessionID).Err(err).Msg("token exchange failed")
		return nil, driving.ErrFlowAuthFailed
	}

	profile, err := s.provider.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		// The token just obtained is discarded: a session is persisted
		// with token and profile together or not at all.
		s.log.Error().Str("session_id", sessionID).Err(err).Msg("profile fetch failed, discarding tokens")
		return nil, driving.ErrFlowAuthFailed
	}

	if err := s.sessions.SetAuthenticated(ctx, sessionID, *token, *profile); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("user_id", profile.ID).
		Str("nickname", profile.Nickname).
		Msg("login completed")

	return profile, nil
}

// exchangeCode runs the code exchange, retrying at most once and only
// when the first attempt provably never reached the provider. A timeout
// or mid-flight failure has an unknown outcome and the single-use code
// must not be resubmitted.
func (s *authFlowService) exchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	token, err := s.provider.ExchangeCode(ctx, code)
	if err == nil {
		return token, nil
	}

	var netErr *domain.NetworkError
	if errors.As(err, &netErr) && netErr.Retryable {
		s.log.Warn().Err(err).Msg("token exchange did not reach the provider, retrying once")
		return s.provider.ExchangeCode(ctx, code)
	}

	return nil, err
}

// Logout destroys the session. Idempotent: an anonymous or unknown
// session logs out successfully without touching the store state.
func (s *authFlowService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	s.log.Info().Str("session_id", sessionID).Msg("session destroyed")
	return nil
}
