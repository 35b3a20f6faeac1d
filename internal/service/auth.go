package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tiktrack/tiktrack-server/internal/auth"
	"github.com/tiktrack/tiktrack-server/internal/domain"
	domainerrors "github.com/tiktrack/tiktrack-server/internal/errors"
	"github.com/tiktrack/tiktrack-server/internal/id"
	"github.com/tiktrack/tiktrack-server/internal/store"
	"github.com/tiktrack/tiktrack-server/internal/tracking"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// AuthService handles user authentication (sign-up, sign-in, token verification).
// Session management is delegated to SessionService.
type AuthService struct {
	store          *store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	entitlements   *EntitlementService
	tracker        tracking.Tracker
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store *store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	entitlements *EntitlementService,
	tracker tracking.Tracker,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		entitlements:   entitlements,
		tracker:        tracker,
		logger:         logger,
	}
}

// SignUpRequest contains new account data.
type SignUpRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string          `json:"display_name" validate:"required,max=100"`
	ClientInfo  auth.ClientInfo `json:"client_info"`
	IPAddress   string          `json:"-"` // Extracted from request by handler
}

// SignInRequest contains user credentials and client information.
type SignInRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required"`
	ClientInfo auth.ClientInfo `json:"client_info"`
	IPAddress  string          `json:"-"` // Extracted from request by handler
}

// RefreshRequest contains the refresh token and updated client info.
type RefreshRequest struct {
	RefreshToken string          `json:"refresh_token" validate:"required"`
	ClientInfo   auth.ClientInfo `json:"client_info"` // Optional updates
	IPAddress    string          `json:"-"`           // Extracted from request by handler
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// SignUp creates a new account and signs the user in.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	// Validate request
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	// Hash password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
		LastLoginAt:  time.Now(),
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Create initial session
	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.ClientInfo, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.tracker.Identify(userID)
	s.tracker.Track("signed_up", map[string]any{"user_id": userID})

	if s.logger != nil {
		s.logger.Info("User signed up",
			"user_id", userID,
			"email", user.Email,
		)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// SignIn authenticates a user and creates a new session.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	// Validate request
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	// Find user by email
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	// Verify password
	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	// Update last login
	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail sign-in
		if s.logger != nil {
			s.logger.Warn("Failed to update last login time",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	// Create session
	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.ClientInfo, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.tracker.Identify(user.ID)
	s.tracker.Track("signed_in", map[string]any{"user_id": user.ID})

	if s.logger != nil {
		s.logger.Info("User signed in",
			"user_id", user.ID,
			"client", req.ClientInfo.ClientName,
		)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// RefreshTokens generates new tokens using a refresh token.
// The old refresh token is invalidated (token rotation).
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	// Validate request
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.ClientInfo, req.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// SignOut revokes a session, invalidating its refresh token.
// The user's entitlement cache entry is dropped so the next sign-in
// re-checks subscription status. The session must belong to the
// calling user; anyone else gets the same not-found as a missing id.
func (s *AuthService) SignOut(ctx context.Context, sessionID, userID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return domainerrors.NotFound("session not found").WithCause(err)
		}
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "get session")
	}
	if session.UserID != userID {
		s.logger.Warn("Sign-out attempted on another user's session",
			"session_id", sessionID,
			"user_id", userID,
		)
		return domainerrors.NotFound("session not found")
	}

	if err := s.sessionService.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	if userID != "" {
		s.entitlements.InvalidateUser(userID)
		s.tracker.Track("signed_out", map[string]any{"user_id": userID})
		s.tracker.Reset(userID)
	}

	return nil
}

// ListSessions returns the user's active sessions for the settings
// page's device list.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.sessionService.ListUserSessions(ctx, userID)
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	// Verify and parse token
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}

	// Get user
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, errors.New("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// formatValidationError converts validator errors to user-friendly domain errors.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return domainerrors.Validationf("%s is required", field)
			case "email":
				return domainerrors.Validationf("%s must be a valid email address", field)
			case "min":
				return domainerrors.Validationf("%s must be at least %s characters", field, e.Param())
			case "max":
				return domainerrors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
			default:
				return domainerrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
