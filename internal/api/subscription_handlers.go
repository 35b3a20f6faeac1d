package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tiktrack/tiktrack-server/internal/domain"
	domainerrors "github.com/tiktrack/tiktrack-server/internal/errors"
	"github.com/tiktrack/tiktrack-server/internal/http/response"
)

// SubscriptionResponse describes the user's subscription state. A user
// with no subscription on record gets entitled=false and a nil status.
type SubscriptionResponse struct {
	Entitled         bool                      `json:"entitled"`
	Status           domain.SubscriptionStatus `json:"status,omitempty"`
	CurrentPeriodEnd *time.Time                `json:"current_period_end,omitempty"`
}

// handleGetSubscription returns the user's subscription state.
// GET /api/v1/subscription
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	sub, err := s.entitlements.Status(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// No subscription yet is a normal state, not an error
			response.Success(w, SubscriptionResponse{Entitled: false}, s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, SubscriptionResponse{
		Entitled:         sub.IsEntitled(time.Now()),
		Status:           sub.Status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}, s.logger)
}

// handleRefreshEntitlement re-checks the subscription, bypassing the
// cache. Called when the user returns from checkout.
// POST /api/v1/subscription/refresh
func (s *Server) handleRefreshEntitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	entitled := s.entitlements.Refresh(ctx, userID)
	s.tracker.Track("entitlement_refreshed", map[string]any{
		"user_id":  userID,
		"entitled": entitled,
	})

	response.Success(w, map[string]bool{"entitled": entitled}, s.logger)
}

// handleCreateCheckout opens a checkout session with the billing
// provider and returns the URL to send the user to.
// POST /api/v1/billing/checkout
func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	email := getEmail(ctx)

	checkoutURL, err := s.checkout.CreateSession(ctx, userID, email)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	s.tracker.Track("checkout_started", map[string]any{"user_id": userID})

	response.Success(w, map[string]string{"checkout_url": checkoutURL}, s.logger)
}
