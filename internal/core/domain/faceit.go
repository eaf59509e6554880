package domain

import "time"

// MatchStatusConfiguration is the FACEIT match status during which
// rehost and configuration changes are allowed.
const MatchStatusConfiguration = "CONFIGURATION"

// Hub is a FACEIT hub as returned by the resource API.
type Hub struct {
	ID        string `json:"hub_id"`
	Name      string `json:"name"`
	GameID    string `json:"game_id"`
	OrgID     string `json:"organizer_id,omitempty"`
	Players   int    `json:"players_joined,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Match is a FACEIT match within a hub.
type Match struct {
	ID           string     `json:"match_id"`
	HubID        string     `json:"competition_id,omitempty"`
	Status       string     `json:"status"`
	GameID       string     `json:"game,omitempty"`
	Region       string     `json:"region,omitempty"`
	ConfiguredAt *time.Time `json:"configured_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
}

// InConfiguration reports whether the match is waiting in configuration mode.
func (m *Match) InConfiguration() bool {
	return m.Status == MatchStatusConfiguration
}

// Championship is a FACEIT championship event.
type Championship struct {
	ID     string `json:"championship_id"`
	Name   string `json:"name"`
	GameID string `json:"game_id"`
	Status string `json:"status,omitempty"`
}
