package faceit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
)

// Ensure Client implements ResourceAPI
var _ driven.ResourceAPI = (*Client)(nil)

// DefaultAPIBaseURL is the FACEIT resource API root.
const DefaultAPIBaseURL = "https://api.faceit.com"

// Client provides FACEIT resource API operations. Every call is
// authenticated with the bearer token supplied by the caller; the
// client itself holds no credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new FACEIT resource API client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// GetHub retrieves a hub by ID.
func (c *Client) GetHub(ctx context.Context, accessToken, hubID string) (*domain.Hub, error) {
	var hub domain.Hub
	path := fmt.Sprintf("/hubs/%s", hubID)
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &hub); err != nil {
		return nil, err
	}
	if hub.ID == "" {
		hub.ID = hubID
	}
	return &hub, nil
}

// GetHubMatch retrieves one match within a hub.
func (c *Client) GetHubMatch(ctx context.Context, accessToken, hubID, matchID string) (*domain.Match, error) {
	var match domain.Match
	path := fmt.Sprintf("/hubs/%s/matches/%s", hubID, matchID)
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &match); err != nil {
		return nil, err
	}
	if match.ID == "" {
		match.ID = matchID
	}
	return &match, nil
}

// ListConfigurationMatches lists the hub's matches that are currently
// in configuration mode.
func (c *Client) ListConfigurationMatches(ctx context.Context, accessToken, hubID string) ([]*domain.Match, error) {
	var page struct {
		Items []*domain.Match `json:"items"`
	}
	path := fmt.Sprintf("/hubs/%s/matches", hubID)
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &page); err != nil {
		return nil, err
	}

	matches := make([]*domain.Match, 0, len(page.Items))
	for _, m := range page.Items {
		if m.InConfiguration() {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// GetChampionship retrieves a championship by ID.
func (c *Client) GetChampionship(ctx context.Context, accessToken, championshipID string) (*domain.Championship, error) {
	var championship domain.Championship
	path := fmt.Sprintf("/championships/%s", championshipID)
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &championship); err != nil {
		return nil, err
	}
	if championship.ID == "" {
		championship.ID = championshipID
	}
	return &championship, nil
}

// RehostChampionship requests a rehost of the event for a game.
func (c *Client) RehostChampionship(ctx context.Context, accessToken, eventID, gameID string) error {
	path := fmt.Sprintf("/championships/%s/rehost", eventID)
	body := map[string]string{"game_id": gameID}
	return c.do(ctx, http.MethodPost, path, accessToken, body, nil)
}

// CancelChampionship cancels the event.
func (c *Client) CancelChampionship(ctx context.Context, accessToken, eventID string) error {
	path := fmt.Sprintf("/championships/%s/cancel", eventID)
	return c.do(ctx, http.MethodPost, path, accessToken, struct{}{}, nil)
}

// do performs one authenticated request and decodes the response into
// out when non-nil.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: method + " " + path, Retryable: false, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &domain.NetworkError{Op: method + " " + path, Retryable: false, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The session's token is no longer accepted; the caller treats
		// this as a stale-session signal.
		return domain.ErrSessionStale
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return providerErrorFromBody(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
