package driving

import (
	"context"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
)

// AuthFlowService sequences the FACEIT login handshake:
// Anonymous → PendingLogin → Authenticated, with every failure branch
// returning the session to Anonymous.
type AuthFlowService interface {
	// StartLogin generates a CSRF state token, records it against the
	// session, and returns the provider URL to redirect the browser to.
	StartLogin(ctx context.Context, sessionID string) (*StartLoginResponse, error)

	// HandleCallback validates and completes the handshake. The state is
	// consumed (single-use, atomically) strictly before the token
	// exchange. On success the session holds token and profile; on any
	// failure it is anonymous again and a *FlowError describes the
	// coarse, browser-safe reason.
	HandleCallback(ctx context.Context, sessionID string, req CallbackRequest) (*domain.Profile, error)

	// Logout destroys the session. Logging out an anonymous or unknown
	// session is a no-op success.
	Logout(ctx context.Context, sessionID string) error
}

// StartLoginResponse contains the provider redirect target.
type StartLoginResponse struct {
	// AuthorizationURL is the URL to redirect the user to for consent.
	AuthorizationURL string `json:"authorization_url"`

	// State is the CSRF token that will come back in the callback.
	State string `json:"state"`
}

// CallbackRequest carries the provider's callback query parameters.
type CallbackRequest struct {
	// Code is the authorization code from the provider.
	Code string `json:"code"`

	// State is the CSRF token returned by the provider.
	State string `json:"state"`

	// Error is set if the provider returned an error.
	Error string `json:"error,omitempty"`

	// ErrorDescription provides details about the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// FlowError is a handshake failure with a coarse code safe to show the
// browser as a query parameter. Internal detail stays in the logs.
type FlowError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *FlowError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Handshake failure codes, mirrored into the login redirect query.
var (
	ErrFlowProviderError    = &FlowError{Code: "provider_error", Description: "the identity provider rejected the login"}
	ErrFlowMissingCode      = &FlowError{Code: "no_code", Description: "no authorization code in callback"}
	ErrFlowInvalidState     = &FlowError{Code: "invalid_state", Description: "state mismatch, login attempt rejected"}
	ErrFlowAuthFailed       = &FlowError{Code: "auth_failed", Description: "could not complete the login"}
	ErrFlowStoreUnavailable = &FlowError{Code: "store_unavailable", Description: "session store unavailable"}
)
