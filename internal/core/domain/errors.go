package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrSessionNotFound indicates the session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable indicates the session store could not be reached.
	// Fatal to the current request only, never to the process.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionStale indicates the resource API rejected the session's
	// access token. Surfaced upward, not handled in the core.
	ErrSessionStale = errors.New("session token no longer accepted")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ProviderError is a structured rejection from the identity provider
// (invalid code, redirect mismatch, denied consent, malformed response).
// Never retried.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// NetworkError is a transport-level failure talking to the provider.
// Retryable is true only when the request never reached the provider,
// so a retry cannot double-submit a single-use code.
type NetworkError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
