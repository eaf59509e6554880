package driven

import (
	"context"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
)

// IdentityProvider talks to the OAuth2 identity provider (FACEIT).
// Implementations classify failures as *domain.ProviderError (structured
// rejection, never retried) or *domain.NetworkError (transport failure,
// retried by the orchestrator only when Retryable).
type IdentityProvider interface {
	// AuthorizationURL builds the provider URL to redirect the browser
	// to for the given CSRF state. Pure, no network I/O.
	AuthorizationURL(state string) string

	// ExchangeCode performs exactly one authorization-code grant against
	// the token endpoint, sending the configured redirect URI. A response
	// without an access token is a *domain.ProviderError.
	ExchangeCode(ctx context.Context, code string) (*domain.Token, error)

	// FetchProfile resolves the authenticated user's profile with one
	// bearer-authenticated read against the userinfo endpoint.
	FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error)
}
