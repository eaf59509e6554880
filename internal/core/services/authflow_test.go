package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driving"
)

// Mock session store

type mockSessionStore struct {
	sessions map[string]*domain.AuthSession

	setPendingStateFunc func(ctx context.Context, id, state string) error
	consumeFunc         func(ctx context.Context, id, state string) (bool, error)
	setAuthFunc         func(ctx context.Context, id string, token domain.Token, profile domain.Profile) error
	destroyFunc         func(ctx context.Context, id string) error

	destroyCalls int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*domain.AuthSession)}
}

func (m *mockSessionStore) addSession(id string) *domain.AuthSession {
	now := time.Now()
	session := &domain.AuthSession{ID: id, CreatedAt: now, ExpiresAt: now.Add(domain.SessionTTL)}
	m.sessions[id] = session
	return session
}

func (m *mockSessionStore) CreateAnonymous(ctx context.Context) (*domain.AuthSession, error) {
	return m.addSession("generated"), nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*domain.AuthSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *mockSessionStore) SetPendingState(ctx context.Context, id, state string) error {
	if m.setPendingStateFunc != nil {
		return m.setPendingStateFunc(ctx, id, state)
	}
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.PendingState = state
	return nil
}

func (m *mockSessionStore) ConsumePendingState(ctx context.Context, id, state string) (bool, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, id, state)
	}
	session, ok := m.sessions[id]
	if !ok || state == "" || session.PendingState != state {
		return false, nil
	}
	session.PendingState = ""
	return true, nil
}

func (m *mockSessionStore) SetAuthenticated(ctx context.Context, id string, token domain.Token, profile domain.Profile) error {
	if m.setAuthFunc != nil {
		return m.setAuthFunc(ctx, id, token, profile)
	}
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Token = &token
	session.Profile = &profile
	session.PendingState = ""
	return nil
}

func (m *mockSessionStore) Destroy(ctx context.Context, id string) error {
	m.destroyCalls++
	if m.destroyFunc != nil {
		return m.destroyFunc(ctx, id)
	}
	delete(m.sessions, id)
	return nil
}

// Mock identity provider

type mockProvider struct {
	authURLFunc      func(state string) string
	exchangeFunc     func(ctx context.Context, code string) (*domain.Token, error)
	fetchProfileFunc func(ctx context.Context, accessToken string) (*domain.Profile, error)

	exchangeCalls int
	fetchCalls    int
}

func (m *mockProvider) AuthorizationURL(state string) string {
	if m.authURLFunc != nil {
		return m.authURLFunc(state)
	}
	return "https://provider.example/authorize?state=" + state
}

func (m *mockProvider) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	m.exchangeCalls++
	if m.exchangeFunc != nil {
		return m.exchangeFunc(ctx, code)
	}
	return &domain.Token{AccessToken: "access-token", TokenType: "Bearer", ExpiresIn: 3600}, nil
}

func (m *mockProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	m.fetchCalls++
	if m.fetchProfileFunc != nil {
		return m.fetchProfileFunc(ctx, accessToken)
	}
	return &domain.Profile{ID: "user-1", Nickname: "player"}, nil
}

func newTestFlow(store *mockSessionStore, provider *mockProvider) driving.AuthFlowService {
	return NewAuthFlowService(AuthFlowConfig{
		Sessions: store,
		Provider: provider,
		Logger:   zerolog.Nop(),
	})
}

// StartLogin

func TestStartLogin(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	provider := &mockProvider{}
	flow := newTestFlow(store, provider)

	resp, err := flow.StartLogin(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("StartLogin failed: %v", err)
	}

	if resp.State == "" {
		t.Fatal("expected a state token")
	}
	if session.PendingState != resp.State {
		t.Error("state must be recorded before the URL is returned")
	}
	if !strings.Contains(resp.AuthorizationURL, resp.State) {
		t.Errorf("authorization URL %q should carry the state", resp.AuthorizationURL)
	}
}

func TestStartLoginReplacesPreviousState(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	flow := newTestFlow(store, &mockProvider{})
	ctx := context.Background()

	first, err := flow.StartLogin(ctx, session.ID)
	if err != nil {
		t.Fatalf("first StartLogin failed: %v", err)
	}
	second, err := flow.StartLogin(ctx, session.ID)
	if err != nil {
		t.Fatalf("second StartLogin failed: %v", err)
	}

	if first.State == second.State {
		t.Error("each attempt must generate a fresh state")
	}
	if session.PendingState != second.State {
		t.Error("the newest state must win")
	}
}

func TestStartLoginStoreUnavailable(t *testing.T) {
	store := newMockSessionStore()
	store.setPendingStateFunc = func(ctx context.Context, id, state string) error {
		return domain.ErrStoreUnavailable
	}
	flow := newTestFlow(store, &mockProvider{})

	_, err := flow.StartLogin(context.Background(), "sess-1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

// HandleCallback

func TestHandleCallbackHappyPath(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"

	var exchangedCode, fetchedToken string
	provider := &mockProvider{
		exchangeFunc: func(ctx context.Context, code string) (*domain.Token, error) {
			exchangedCode = code
			return &domain.Token{AccessToken: "at-xyz", TokenType: "Bearer", ExpiresIn: 3600}, nil
		},
		fetchProfileFunc: func(ctx context.Context, accessToken string) (*domain.Profile, error) {
			fetchedToken = accessToken
			return &domain.Profile{ID: "user-1", Nickname: "player"}, nil
		},
	}
	flow := newTestFlow(store, provider)

	profile, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
		Code:  "abc123",
		State: "s1",
	})
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}

	if profile.Nickname != "player" {
		t.Errorf("unexpected profile %+v", profile)
	}
	if exchangedCode != "abc123" {
		t.Errorf("expected code abc123 to be exchanged, got %q", exchangedCode)
	}
	if fetchedToken != "at-xyz" {
		t.Errorf("profile fetch must use the fresh access token, got %q", fetchedToken)
	}
	if !session.IsAuthenticated() {
		t.Error("session should be authenticated")
	}
	if session.PendingState != "" {
		t.Error("state must be consumed")
	}
}

func TestHandleCallbackProviderError(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"
	provider := &mockProvider{}
	flow := newTestFlow(store, provider)

	_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
		Error:            "access_denied",
		ErrorDescription: "user declined",
	})

	var flowErr *driving.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != "provider_error" {
		t.Fatalf("expected provider_error, got %v", err)
	}
	if flowErr.Description != "user declined" {
		t.Errorf("expected the provider description to surface, got %q", flowErr.Description)
	}
	if provider.exchangeCalls != 0 {
		t.Error("no exchange may happen when the provider reported an error")
	}
	if session.IsAuthenticated() {
		t.Error("session must stay anonymous")
	}
}

func TestHandleCallbackMissingCode(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"
	provider := &mockProvider{}
	flow := newTestFlow(store, provider)

	_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{State: "s1"})

	var flowErr *driving.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != "no_code" {
		t.Fatalf("expected no_code, got %v", err)
	}
	if provider.exchangeCalls != 0 {
		t.Error("no exchange may happen without a code")
	}
	// The pending state must not be consumed by a malformed callback.
	if session.PendingState != "s1" {
		t.Error("state should remain pending")
	}
}

func TestHandleCallbackInvalidState(t *testing.T) {
	tests := []struct {
		name  string
		state string
	}{
		{"mismatched state", "forged"},
		{"empty state", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockSessionStore()
			session := store.addSession("sess-1")
			session.PendingState = "s1"
			provider := &mockProvider{}
			flow := newTestFlow(store, provider)

			_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
				Code:  "abc123",
				State: tt.state,
			})

			var flowErr *driving.FlowError
			if !errors.As(err, &flowErr) || flowErr.Code != "invalid_state" {
				t.Fatalf("expected invalid_state, got %v", err)
			}
			if provider.exchangeCalls != 0 {
				t.Error("the token endpoint must never be called on state failure")
			}
			if session.IsAuthenticated() {
				t.Error("session must stay anonymous")
			}
		})
	}
}

func TestHandleCallbackReplayedState(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"
	provider := &mockProvider{}
	flow := newTestFlow(store, provider)
	ctx := context.Background()

	req := driving.CallbackRequest{Code: "abc123", State: "s1"}

	if _, err := flow.HandleCallback(ctx, session.ID, req); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}

	_, err := flow.HandleCallback(ctx, session.ID, req)
	var flowErr *driving.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != "invalid_state" {
		t.Fatalf("replayed callback must fail with invalid_state, got %v", err)
	}
	if provider.exchangeCalls != 1 {
		t.Errorf("expected exactly one exchange, got %d", provider.exchangeCalls)
	}
}

func TestHandleCallbackExchangeRejected(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"
	provider := &mockProvider{
		exchangeFunc: func(ctx context.Context, code string) (*domain.Token, error) {
			return nil, &domain.ProviderError{Code: "invalid_grant", Description: "code expired"}
		},
	}
	flow := newTestFlow(store, provider)

	_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
		Code:  "abc123",
		State: "s1",
	})

	var flowErr *driving.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != "provider_error" {
		t.Fatalf("expected provider_error, got %v", err)
	}
	if provider.exchangeCalls != 1 {
		t.Errorf("a provider rejection must not be retried, got %d calls", provider.exchangeCalls)
	}
	if session.IsAuthenticated() {
		t.Error("session must stay anonymous")
	}
}

func TestHandleCallbackExchangeRetry(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
		wantOK    bool
	}{
		{
			name:      "dial failure retried once",
			err:       &domain.NetworkError{Op: "exchange", Retryable: true, Err: errors.New("connection refused")},
			wantCalls: 2,
			wantOK:    true,
		},
		{
			name:      "timeout not retried",
			err:       &domain.NetworkError{Op: "exchange", Retryable: false, Err: errors.New("context deadline exceeded")},
			wantCalls: 1,
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockSessionStore()
			session := store.addSession("sess-1")
			session.PendingState = "s1"

			provider := &mockProvider{}
			provider.exchangeFunc = func(ctx context.Context, code string) (*domain.Token, error) {
				if provider.exchangeCalls == 1 {
					return nil, tt.err
				}
				return &domain.Token{AccessToken: "at", TokenType: "Bearer"}, nil
			}
			flow := newTestFlow(store, provider)

			_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
				Code:  "abc123",
				State: "s1",
			})

			if provider.exchangeCalls != tt.wantCalls {
				t.Errorf("expected %d exchange calls, got %d", tt.wantCalls, provider.exchangeCalls)
			}
			if tt.wantOK && err != nil {
				t.Errorf("expected retry to succeed, got %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected the callback to fail")
			}
		})
	}
}

func TestHandleCallbackRetriesExhausted(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"

	provider := &mockProvider{
		exchangeFunc: func(ctx context.Context, code string) (*domain.Token, error) {
			return nil, &domain.NetworkError{Op: "exchange", Retryable: true, Err: errors.New("connection refused")}
		},
	}
	flow := newTestFlow(store, provider)

	_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
		Code:  "abc123",
		State: "s1",
	})

	var flowErr *driving.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != "auth_failed" {
		t.Fatalf("expected auth_failed, got %v", err)
	}
	if provider.exchangeCalls != 2 {
		t.Errorf("expected exactly 2 exchange attempts, got %d", provider.exchangeCalls)
	}
}

func TestHandleCallbackProfileFetchFails(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"

	provider := &mockProvider{
		fetchProfileFunc: func(ctx context.Context, accessToken string) (*domain.Profile, error) {
			return nil, &domain.NetworkError{Op: "userinfo", Err: errors.New("connection reset")}
		},
	}
	flow := newTestFlow(store, provider)

	_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
		Code:  "abc123",
		State: "s1",
	})

	var flowErr *driving.FlowError
	if !errors.As(err, &flowErr) || flowErr.Code != "auth_failed" {
		t.Fatalf("expected auth_failed, got %v", err)
	}
	// All-or-nothing: the obtained token must not be persisted.
	if session.Token != nil {
		t.Error("session must not keep a token without a profile")
	}
	if session.IsAuthenticated() {
		t.Error("session must stay anonymous")
	}
}

func TestHandleCallbackPersistFails(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	session.PendingState = "s1"
	store.setAuthFunc = func(ctx context.Context, id string, token domain.Token, profile domain.Profile) error {
		return domain.ErrStoreUnavailable
	}
	flow := newTestFlow(store, &mockProvider{})

	_, err := flow.HandleCallback(context.Background(), session.ID, driving.CallbackRequest{
		Code:  "abc123",
		State: "s1",
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestHandleCallbackStoreErrorDuringConsume(t *testing.T) {
	store := newMockSessionStore()
	store.addSession("sess-1")
	store.consumeFunc = func(ctx context.Context, id, state string) (bool, error) {
		return false, domain.ErrStoreUnavailable
	}
	provider := &mockProvider{}
	flow := newTestFlow(store, provider)

	_, err := flow.HandleCallback(context.Background(), "sess-1", driving.CallbackRequest{
		Code:  "abc123",
		State: "s1",
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if provider.exchangeCalls != 0 {
		t.Error("a store failure must not be treated as a state match")
	}
}

// Logout

func TestLogout(t *testing.T) {
	store := newMockSessionStore()
	session := store.addSession("sess-1")
	flow := newTestFlow(store, &mockProvider{})

	if err := flow.Logout(context.Background(), session.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := store.sessions[session.ID]; ok {
		t.Error("session should be destroyed")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	store := newMockSessionStore()
	flow := newTestFlow(store, &mockProvider{})
	ctx := context.Background()

	if err := flow.Logout(ctx, "unknown"); err != nil {
		t.Errorf("logout of unknown session must succeed, got %v", err)
	}
	if err := flow.Logout(ctx, ""); err != nil {
		t.Errorf("logout with empty ID must succeed, got %v", err)
	}
	if store.destroyCalls != 1 {
		t.Errorf("empty ID must not hit the store, got %d destroy calls", store.destroyCalls)
	}
}
