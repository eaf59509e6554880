package faceit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// Ensure Provider implements IdentityProvider
var _ driven.IdentityProvider = (*Provider)(nil)

// Default FACEIT OAuth2 endpoints. Overridable through ProviderConfig
// because the authorize host has moved between FACEIT releases.
const (
	DefaultAuthURL     = "https://www.faceit.com/oauth/authorize"
	DefaultTokenURL    = "https://api.faceit.com/auth/v1/oauth/token"
	DefaultUserInfoURL = "https://api.faceit.com/core/v1/users/me"
)

// DefaultScopes are the permissions requested for the dashboard login.
var DefaultScopes = []string{"openid", "profile", "email"}

// ProviderConfig holds the OAuth2 client registration for FACEIT.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string

	// RedirectURI must match the registration exactly; FACEIT validates
	// it again during the code exchange.
	RedirectURI string

	// AuthURL, TokenURL and UserInfoURL default to the public FACEIT
	// endpoints when empty.
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient defaults to a client with a 15s timeout.
	HTTPClient *http.Client
}

// Provider implements the identity-provider port against FACEIT.
type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewProvider validates the client registration and builds a provider.
// Missing client credentials or redirect URI are a configuration error,
// caught at startup.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("faceit provider: client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("faceit provider: client secret is required")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("faceit provider: redirect uri is required")
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}, nil
}

// AuthorizationURL builds the consent URL for the given CSRF state.
// Pure string construction; response_type=code is implied by the grant.
func (p *Provider) AuthorizationURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ExchangeCode swaps the authorization code for a token pair. The
// configured redirect URI is sent with the grant; FACEIT rejects a
// mismatch as a structured error.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(err)
	}
	if tok.AccessToken == "" {
		return nil, &domain.ProviderError{
			Code:        "malformed_response",
			Description: "token response missing access_token",
		}
	}

	return &domain.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		RefreshToken: tok.RefreshToken,
	}, nil
}

// FetchProfile resolves the user behind an access token via the
// userinfo endpoint. Not retried; a rejected token is a provider error.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "userinfo", Retryable: false, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.NetworkError{Op: "userinfo", Retryable: false, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, providerErrorFromBody(resp.StatusCode, body)
	}

	var payload struct {
		Sub      string `json:"sub"`
		GUID     string `json:"guid"`
		UserID   string `json:"id"`
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.ProviderError{
			Code:        "malformed_response",
			Description: "userinfo response is not valid JSON",
		}
	}

	id := payload.Sub
	if id == "" {
		id = payload.GUID
	}
	if id == "" {
		id = payload.UserID
	}
	if id == "" {
		return nil, &domain.ProviderError{
			Code:        "malformed_response",
			Description: "userinfo response missing a user identifier",
		}
	}

	return &domain.Profile{
		ID:       id,
		Nickname: payload.Nickname,
		Raw:      json.RawMessage(body),
	}, nil
}

// classifyExchangeError maps oauth2 failures onto the domain taxonomy.
func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		code := retrieveErr.ErrorCode
		if code == "" {
			code = fmt.Sprintf("http_%d", retrieveErr.Response.StatusCode)
		}
		return &domain.ProviderError{
			Code:        code,
			Description: retrieveErr.ErrorDescription,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &domain.NetworkError{
			Op:        "token exchange",
			Retryable: isDialFailure(urlErr),
			Err:       err,
		}
	}

	// oauth2 reports a 2xx response without an access token as a plain
	// error; treat anything unclassified as a malformed response.
	return &domain.ProviderError{
		Code:        "malformed_response",
		Description: err.Error(),
	}
}

// isDialFailure reports whether the request never reached the provider.
// Only then is a retry safe for a single-use authorization code: a
// timeout or mid-flight failure leaves the outcome unknown.
func isDialFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// providerErrorFromBody decodes a structured provider rejection,
// falling back to the HTTP status when the body is opaque.
func providerErrorFromBody(status int, body []byte) error {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	code := payload.Error
	if code == "" {
		code = fmt.Sprintf("http_%d", status)
	}
	description := payload.ErrorDescription
	if description == "" {
		description = payload.Message
	}

	return &domain.ProviderError{Code: code, Description: description}
}
