// Package domain contains the core entity types for the TikTrack server.
package domain

import "time"

// User represents an authenticated account in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	DisplayName  string    `json:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new user.
func (u *User) InitTimestamps() {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Session represents an active user session with refresh token.
// Each browser/device gets its own session.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`

	// Client information - structured data from the dashboard client
	ClientName     string `json:"client_name,omitempty"`     // TikTrack Web
	ClientVersion  string `json:"client_version,omitempty"`  // 1.0.0
	BrowserName    string `json:"browser_name,omitempty"`    // Chrome, Firefox, Safari
	BrowserVersion string `json:"browser_version,omitempty"` // 120.0.6099.109
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// DisplayName returns a human-readable description of the client.
func (s *Session) DisplayName() string {
	if s.BrowserName != "" {
		if s.BrowserVersion != "" {
			return s.BrowserName + " " + s.BrowserVersion
		}
		return s.BrowserName
	}
	if s.ClientName != "" {
		if s.ClientVersion != "" {
			return s.ClientName + " " + s.ClientVersion
		}
		return s.ClientName
	}
	return "Unknown Client"
}
