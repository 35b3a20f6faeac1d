package api

import (
	"encoding/json/v2"
	"net/http"
	"time"

	"github.com/tiktrack/tiktrack-server/internal/http/response"
	"github.com/tiktrack/tiktrack-server/internal/service"
)

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	SessionID    string       `json:"session_id"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// mapAuthResponse strips the stored user record down to API-safe fields.
func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User: UserResponse{
			ID:          resp.User.ID,
			Email:       resp.User.Email,
			DisplayName: resp.User.DisplayName,
			CreatedAt:   resp.User.CreatedAt,
			LastLoginAt: resp.User.LastLoginAt,
		},
	}
}

// handleSignUp creates a new account and signs the user in.
// POST /api/v1/auth/signup
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.SignUpRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	req.IPAddress = clientIP(r)

	resp, err := s.authService.SignUp(ctx, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapAuthResponse(resp), s.logger)
}

// handleLogin authenticates a user and returns session tokens.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.SignInRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	req.IPAddress = clientIP(r)

	resp, err := s.authService.SignIn(ctx, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapAuthResponse(resp), s.logger)
}

// handleRefresh exchanges a refresh token for new tokens.
// POST /api/v1/auth/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.RefreshRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	req.IPAddress = clientIP(r)

	resp, err := s.authService.RefreshTokens(ctx, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapAuthResponse(resp), s.logger)
}

// logoutRequest is the request body for logout.
type logoutRequest struct {
	SessionID string `json:"session_id"`
}

// handleLogout revokes the given session and drops the user's cached
// entitlement verdict.
// POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req logoutRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if req.SessionID == "" {
		response.BadRequest(w, "session_id is required", s.logger)
		return
	}

	if err := s.authService.SignOut(ctx, req.SessionID, userID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"message": "Logged out successfully"}, s.logger)
}

// SessionResponse is one entry in the settings page's device list.
// The refresh token hash never leaves the store layer.
type SessionResponse struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	LastSeenAt     time.Time `json:"last_seen_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IPAddress      string    `json:"ip_address,omitempty"`
	ClientName     string    `json:"client_name,omitempty"`
	ClientVersion  string    `json:"client_version,omitempty"`
	BrowserName    string    `json:"browser_name,omitempty"`
	BrowserVersion string    `json:"browser_version,omitempty"`
}

// handleListSessions returns the user's active sessions.
// GET /api/v1/auth/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	sessions, err := s.authService.ListSessions(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionResponse{
			ID:             sess.ID,
			CreatedAt:      sess.CreatedAt,
			LastSeenAt:     sess.LastSeenAt,
			ExpiresAt:      sess.ExpiresAt,
			IPAddress:      sess.IPAddress,
			ClientName:     sess.ClientName,
			ClientVersion:  sess.ClientVersion,
			BrowserName:    sess.BrowserName,
			BrowserVersion: sess.BrowserVersion,
		})
	}

	response.Success(w, out, s.logger)
}
