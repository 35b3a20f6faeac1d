// Package billing talks to the external payment provider.
package billing

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"time"

	"github.com/tiktrack/tiktrack-server/internal/errors"
)

const checkoutTimeout = 10 * time.Second

// CheckoutClient creates hosted checkout sessions with the billing
// provider. The provider owns the payment flow end to end; we only
// hand the browser a redirect URL.
type CheckoutClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewCheckoutClient creates a checkout client for the given provider endpoint.
func NewCheckoutClient(endpoint, apiKey string) *CheckoutClient {
	return &CheckoutClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: checkoutTimeout},
	}
}

type checkoutRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateSession asks the provider for a hosted checkout page and returns
// its redirect URL.
func (c *CheckoutClient) CreateSession(ctx context.Context, userID, email string) (string, error) {
	if c.endpoint == "" {
		return "", errors.Unavailable("checkout is not configured")
	}

	body, err := json.Marshal(checkoutRequest{UserID: userID, Email: email})
	if err != nil {
		return "", errors.Internal("encode checkout request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Internal("build checkout request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Unavailable("checkout provider unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", errors.Unavailable(fmt.Sprintf("checkout provider returned %d", resp.StatusCode))
	}

	var parsed checkoutResponse
	if err := json.UnmarshalRead(resp.Body, &parsed); err != nil {
		return "", errors.Unavailable("malformed checkout response").WithCause(err)
	}

	if parsed.URL == "" {
		return "", errors.Unavailable("checkout response missing redirect URL")
	}

	return parsed.URL, nil
}
