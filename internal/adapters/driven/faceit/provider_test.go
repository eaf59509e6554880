package faceit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
)

func newTestProvider(t *testing.T, ts *httptest.Server) *Provider {
	t.Helper()

	cfg := ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://dashboard.example/callback",
	}
	if ts != nil {
		cfg.AuthURL = ts.URL + "/oauth/authorize"
		cfg.TokenURL = ts.URL + "/auth/v1/oauth/token"
		cfg.UserInfoURL = ts.URL + "/core/v1/users/me"
		cfg.HTTPClient = ts.Client()
	}

	provider, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return provider
}

func TestNewProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"missing client id", ProviderConfig{ClientSecret: "s", RedirectURI: "r"}},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURI: "r"}},
		{"missing redirect uri", ProviderConfig{ClientID: "c", ClientSecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(tt.cfg); err == nil {
				t.Error("expected a configuration error")
			}
		})
	}
}

func TestAuthorizationURL(t *testing.T) {
	provider := newTestProvider(t, nil)

	raw := provider.AuthorizationURL("state-xyz")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}

	if got := u.Scheme + "://" + u.Host + u.Path; got != DefaultAuthURL {
		t.Errorf("expected base %q, got %q", DefaultAuthURL, got)
	}

	q := u.Query()
	if q.Get("client_id") != "client-id" {
		t.Errorf("unexpected client_id %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://dashboard.example/callback" {
		t.Errorf("unexpected redirect_uri %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("unexpected response_type %q", q.Get("response_type"))
	}
	if q.Get("state") != "state-xyz" {
		t.Errorf("unexpected state %q", q.Get("state"))
	}
	if scopes := q.Get("scope"); !strings.Contains(scopes, "openid") {
		t.Errorf("expected openid scope, got %q", scopes)
	}
}

func TestExchangeCodeSuccess(t *testing.T) {
	var gotCode, gotRedirect string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/oauth/token" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotCode = r.FormValue("code")
		gotRedirect = r.FormValue("redirect_uri")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "at-xyz",
			"token_type": "Bearer",
			"expires_in": 3600,
			"refresh_token": "rt-abc"
		}`))
	}))
	defer ts.Close()

	provider := newTestProvider(t, ts)

	token, err := provider.ExchangeCode(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	if gotCode != "abc123" {
		t.Errorf("expected code abc123, got %q", gotCode)
	}
	if gotRedirect != "https://dashboard.example/callback" {
		t.Errorf("expected the registered redirect URI, got %q", gotRedirect)
	}
	if token.AccessToken != "at-xyz" || token.RefreshToken != "rt-abc" {
		t.Errorf("unexpected token %+v", token)
	}
	if token.TokenType != "Bearer" {
		t.Errorf("unexpected token type %q", token.TokenType)
	}
}

func TestExchangeCodeProviderRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	}))
	defer ts.Close()

	provider := newTestProvider(t, ts)

	_, err := provider.ExchangeCode(context.Background(), "stale-code")

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Code != "invalid_grant" {
		t.Errorf("expected invalid_grant, got %q", provErr.Code)
	}
	if provErr.Description != "code expired" {
		t.Errorf("expected description to carry over, got %q", provErr.Description)
	}
}

func TestExchangeCodeMissingAccessToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer ts.Close()

	provider := newTestProvider(t, ts)

	_, err := provider.ExchangeCode(context.Background(), "abc123")

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Code != "malformed_response" {
		t.Errorf("expected malformed_response, got %q", provErr.Code)
	}
}

func TestExchangeCodeDialFailure(t *testing.T) {
	// A server that is already closed: the dial never succeeds, so the
	// request provably never reached the provider.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	provider := newTestProvider(t, ts)

	_, err := provider.ExchangeCode(context.Background(), "abc123")

	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !netErr.Retryable {
		t.Error("a dial failure should be retryable")
	}
}

func TestFetchProfileSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-xyz" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"user-1","nickname":"player","country":"se"}`))
	}))
	defer ts.Close()

	provider := newTestProvider(t, ts)

	profile, err := provider.FetchProfile(context.Background(), "at-xyz")
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}

	if profile.ID != "user-1" || profile.Nickname != "player" {
		t.Errorf("unexpected profile %+v", profile)
	}
	// The raw payload is preserved for fields the domain model drops.
	if !strings.Contains(string(profile.Raw), `"country":"se"`) {
		t.Errorf("expected raw payload to be kept, got %s", profile.Raw)
	}
}

func TestFetchProfileIDFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
	}{
		{"sub preferred", `{"sub":"s1","guid":"g1","id":"i1","nickname":"n"}`, "s1"},
		{"guid fallback", `{"guid":"g1","id":"i1","nickname":"n"}`, "g1"},
		{"id fallback", `{"id":"i1","nickname":"n"}`, "i1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			profile, err := newTestProvider(t, ts).FetchProfile(context.Background(), "at")
			if err != nil {
				t.Fatalf("FetchProfile failed: %v", err)
			}
			if profile.ID != tt.wantID {
				t.Errorf("expected ID %q, got %q", tt.wantID, profile.ID)
			}
		})
	}
}

func TestFetchProfileRejectedToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
	}))
	defer ts.Close()

	provider := newTestProvider(t, ts)

	_, err := provider.FetchProfile(context.Background(), "bad-token")

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Code != "invalid_token" {
		t.Errorf("expected invalid_token, got %q", provErr.Code)
	}
}

func TestFetchProfileMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>error</html>"},
		{"missing identifier", `{"nickname":"player"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := newTestProvider(t, ts).FetchProfile(context.Background(), "at")

			var provErr *domain.ProviderError
			if !errors.As(err, &provErr) || provErr.Code != "malformed_response" {
				t.Errorf("expected malformed_response, got %v", err)
			}
		})
	}
}
