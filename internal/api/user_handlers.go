package api

import (
	"net/http"
	"time"

	"github.com/tiktrack/tiktrack-server/internal/http/response"
)

// UserResponse contains user information in API responses. The
// password hash never leaves the server.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// handleGetCurrentUser returns the authenticated user's profile.
// GET /api/v1/users/me
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		response.NotFound(w, "User not found", s.logger)
		return
	}

	response.Success(w, UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}, s.logger)
}
