package domain

import "time"

// SubscriptionStatus is the status reported by the payment provider.
type SubscriptionStatus string

// Subscription statuses as written by the payment provider's webhook
// processor. Only active and trialing can confer entitlement.
const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// Subscription is a user's subscription record as mirrored from the
// payment provider. This application only reads these records; they are
// written by the provider's webhook pipeline.
type Subscription struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	Status           SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time         `json:"current_period_end"`
	CustomerRef      string             `json:"customer_ref,omitempty"`     // Provider-side customer ID
	SubscriptionRef  string             `json:"subscription_ref,omitempty"` // Provider-side subscription ID
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// IsEntitled reports whether the subscription confers access at the given
// instant. Fail closed: anything other than an active or trialing status
// with a period end in the future is not entitled.
func (s *Subscription) IsEntitled(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != SubscriptionActive && s.Status != SubscriptionTrialing {
		return false
	}
	return s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(now)
}
