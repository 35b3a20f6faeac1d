package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tiktrack/tiktrack-server/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyUserID    contextKey = "user_id"
	contextKeyEmail     contextKey = "email"
	contextKeySessionID contextKey = "session_id"
)

// requireAuth is middleware that validates access tokens and attaches user context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Missing authorization header", s.logger)
			return
		}

		// Parse Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format", s.logger)
			return
		}

		tokenString := parts[1]

		// Verify token
		user, claims, err := s.authService.VerifyAccessToken(r.Context(), tokenString)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}

		// Attach user context
		ctx := context.WithValue(r.Context(), contextKeyUserID, user.ID)
		ctx = context.WithValue(ctx, contextKeyEmail, user.Email)
		ctx = context.WithValue(ctx, contextKeySessionID, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireEntitled is middleware that gates routes behind an active
// subscription. Must be used after requireAuth. When the user is not
// entitled the response carries the paywall URL so clients know where
// to send them.
func (s *Server) requireEntitled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := getUserID(r.Context())
		if userID == "" {
			response.Unauthorized(w, "Authentication required", s.logger)
			return
		}

		if !s.entitlements.Check(r.Context(), userID) {
			response.PaymentRequired(w, "An active subscription is required", s.cfg.Billing.PaywallURL, s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitByIP throttles credential endpoints per client IP.
func (s *Server) rateLimitByIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.loginLimiter.Allow(clientIP(r)) {
			response.Error(w, http.StatusTooManyRequests, "Too many attempts, slow down", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's client address without the port.
// middleware.RealIP has already resolved proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}

// getUserID extracts the authenticated user ID from request context.
// Returns empty string if not authenticated.
func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}

// getEmail extracts the authenticated user email from request context.
// Returns empty string if not authenticated.
func getEmail(ctx context.Context) string {
	if email, ok := ctx.Value(contextKeyEmail).(string); ok {
		return email
	}
	return ""
}

// getSessionID extracts the session ID from request context.
// Returns empty string if not available.
func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(contextKeySessionID).(string); ok {
		return sessionID
	}
	return ""
}
