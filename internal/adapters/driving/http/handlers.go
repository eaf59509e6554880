package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matchops/faceit-dashboard/internal/core/domain"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driving"
)

// Page handlers

// handleIndex serves the login page, or sends an already-authenticated
// browser straight to the dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session != nil && session.IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	renderLoginPage(w, r)
}

// handleAuth starts the login handshake and redirects to FACEIT.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session == nil {
		http.Redirect(w, r, "/?error=auth_failed", http.StatusSeeOther)
		return
	}

	resp, err := s.authFlow.StartLogin(r.Context(), session.ID)
	if err != nil {
		http.Redirect(w, r, "/?error="+flowErrorCode(err), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, resp.AuthorizationURL, http.StatusSeeOther)
}

// handleCallback completes the handshake. Failures redirect back to the
// login page with a coarse code only; detail stays in the logs.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session == nil {
		http.Redirect(w, r, "/?error=auth_failed", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	req := driving.CallbackRequest{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	if _, err := s.authFlow.HandleCallback(r.Context(), session.ID, req); err != nil {
		http.Redirect(w, r, "/?error="+flowErrorCode(err), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDashboard serves the gated welcome page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil || authCtx.Profile == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	renderDashboardPage(w, authCtx.Profile.Nickname)
}

// handleLogout destroys the session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session != nil {
		if err := s.authFlow.Logout(r.Context(), session.ID); err != nil {
			s.logger.Error().Err(err).Msg("logout failed")
		}
	}

	s.cookies.Clear(w)
	http.Redirect(w, r, "/?message=logged_out", http.StatusSeeOther)
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "session store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Session API

// handleGetSession reports the caller's own login state and profile.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session == nil || !session.IsAuthenticated() {
		writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"profile":       session.Profile,
	})
}

// Dashboard API

func (s *Server) handleGetHub(w http.ResponseWriter, r *http.Request) {
	hub, err := s.dashboard.GetHub(r.Context(), GetAuthContext(r.Context()), r.PathValue("hubId"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, hub)
}

func (s *Server) handleListHubMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.dashboard.ListConfigurationMatches(r.Context(), GetAuthContext(r.Context()), r.PathValue("hubId"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	if matches == nil {
		matches = []*domain.Match{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

func (s *Server) handleGetHubMatch(w http.ResponseWriter, r *http.Request) {
	match, err := s.dashboard.GetHubMatch(r.Context(), GetAuthContext(r.Context()),
		r.PathValue("hubId"), r.PathValue("matchId"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleGetChampionship(w http.ResponseWriter, r *http.Request) {
	championship, err := s.dashboard.GetChampionship(r.Context(), GetAuthContext(r.Context()), r.PathValue("championshipId"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, championship)
}

func (s *Server) handleRehost(w http.ResponseWriter, r *http.Request) {
	var req driving.RehostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.dashboard.RehostChampionship(r.Context(), GetAuthContext(r.Context()), req)
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req driving.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.dashboard.CancelChampionship(r.Context(), GetAuthContext(r.Context()), req)
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions

// flowErrorCode maps a handshake error to its browser-safe query code.
func flowErrorCode(err error) string {
	var flowErr *driving.FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Code
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return driving.ErrFlowStoreUnavailable.Code
	}
	return driving.ErrFlowAuthFailed.Code
}

// writeDashboardError maps resource API failures to HTTP statuses.
func writeDashboardError(w http.ResponseWriter, err error) {
	var (
		providerErr *domain.ProviderError
		networkErr  *domain.NetworkError
	)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrSessionStale):
		writeError(w, http.StatusUnauthorized, "session expired, please log in again")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.As(err, &providerErr), errors.As(err, &networkErr):
		writeError(w, http.StatusBadGateway, "upstream request failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
