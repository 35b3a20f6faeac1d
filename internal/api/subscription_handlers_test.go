package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiktrack/tiktrack-server/internal/billing"
	"github.com/tiktrack/tiktrack-server/internal/domain"
)

func TestGetSubscription_NoneOnRecord(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/subscription/", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[SubscriptionResponse](t, rec)
	assert.True(t, envelope.Success)
	assert.False(t, envelope.Data.Entitled)
	assert.Empty(t, envelope.Data.Status)
}

func TestGetSubscription_Active(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")
	entitleUser(t, ts, signed.User.ID)

	rec := ts.do(t, http.MethodGet, "/api/v1/subscription/", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[SubscriptionResponse](t, rec)
	assert.True(t, envelope.Data.Entitled)
	assert.Equal(t, domain.SubscriptionActive, envelope.Data.Status)
	assert.NotNil(t, envelope.Data.CurrentPeriodEnd)
}

func TestRefreshEntitlement_BypassesCache(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")

	// Gate caches "not entitled"
	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/", signed.AccessToken, nil)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	// Subscription lands (e.g. checkout completed)
	entitleUser(t, ts, signed.User.ID)

	// Cached verdict still gates
	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/", signed.AccessToken, nil)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	// Explicit refresh picks up the new subscription
	rec = ts.do(t, http.MethodPost, "/api/v1/subscription/refresh", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeResponse[map[string]bool](t, rec)
	assert.True(t, envelope.Data["entitled"])

	// And the gate opens
	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/", signed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateCheckout_NotConfigured(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")

	// Test config has no checkout endpoint
	rec := ts.do(t, http.MethodPost, "/api/v1/billing/checkout", signed.AccessToken, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCreateCheckout_Success(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url": "https://pay.example.com/cs_123"}`))
	}))
	defer provider.Close()

	ts := setupTestServer(t)
	ts.server.checkout = billing.NewCheckoutClient(provider.URL, "test-key")
	signed := signUpUser(t, ts, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/billing/checkout", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[map[string]string](t, rec)
	assert.Equal(t, "https://pay.example.com/cs_123", envelope.Data["checkout_url"])
}

func TestSignOutInvalidatesEntitlementCache(t *testing.T) {
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")
	entitleUser(t, ts, signed.User.ID)

	// Warm the cache
	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Sign out drops the verdict
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/logout", signed.AccessToken, map[string]any{
		"session_id": signed.SessionID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Lapse the subscription under the old cache entry
	sub, err := ts.store.Subscriptions.GetByIndex(t.Context(), "user", signed.User.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	sub.CurrentPeriodEnd = &past
	require.NoError(t, ts.store.Subscriptions.Update(t.Context(), sub.ID, sub))

	// A fresh sign-in sees the lapsed subscription immediately
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "SecurePassword123!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	relogged := decodeResponse[AuthResponse](t, rec).Data

	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/", relogged.AccessToken, nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}
