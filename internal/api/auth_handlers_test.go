package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp_Success(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":        "alice@example.com",
		"password":     "SecurePassword123!",
		"display_name": "Alice",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeResponse[AuthResponse](t, rec)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.NotEmpty(t, envelope.Data.SessionID)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Positive(t, envelope.Data.ExpiresIn)
	assert.Equal(t, "alice@example.com", envelope.Data.User.Email)
	assert.Equal(t, "Alice", envelope.Data.User.DisplayName)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":        "alice@example.com",
		"password":     "AnotherPassword123!",
		"display_name": "Imposter",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignUp_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "missing email",
			body: map[string]any{"password": "SecurePassword123!", "display_name": "A"},
		},
		{
			name: "invalid email format",
			body: map[string]any{"email": "not-an-email", "password": "SecurePassword123!", "display_name": "A"},
		},
		{
			name: "password too short",
			body: map[string]any{"email": "a@example.com", "password": "short", "display_name": "A"},
		},
		{
			name: "missing display name",
			body: map[string]any{"email": "a@example.com", "password": "SecurePassword123!"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	ts := setupTestServer(t)
	signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "SecurePassword123!",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[AuthResponse](t, rec)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "alice@example.com", envelope.Data.User.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "WrongPassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decodeResponse[any](t, rec)
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Code)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": signed.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[AuthResponse](t, rec)
	assert.NotEqual(t, signed.RefreshToken, envelope.Data.RefreshToken)

	// Old refresh token is now invalid
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": signed.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", signed.AccessToken, map[string]any{
		"session_id": signed.SessionID,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// The session's refresh token no longer works
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": signed.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_OtherUsersSession(t *testing.T) {
	ts := setupTestServer(t)
	alice := signUpUser(t, ts, "alice@example.com")
	mallory := signUpUser(t, ts, "mallory@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", mallory.AccessToken, map[string]any{
		"session_id": alice.SessionID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Alice's session survived the attempt
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": alice.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListSessions(t *testing.T) {
	ts := setupTestServer(t)
	alice := signUpUser(t, ts, "alice@example.com")
	signUpUser(t, ts, "bob@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/sessions", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[[]SessionResponse](t, rec)
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, alice.SessionID, envelope.Data[0].ID)
	assert.NotEmpty(t, envelope.Data[0].ClientName)
	// Token material stays out of the device list
	assert.NotContains(t, rec.Body.String(), "refresh_token_hash")
}

func TestListSessions_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]any{
		"session_id": "session_whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
