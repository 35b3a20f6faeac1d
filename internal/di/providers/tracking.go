package providers

import (
	"github.com/samber/do/v2"

	"github.com/tiktrack/tiktrack-server/internal/billing"
	"github.com/tiktrack/tiktrack-server/internal/config"
	"github.com/tiktrack/tiktrack-server/internal/logger"
	"github.com/tiktrack/tiktrack-server/internal/tracking"
)

// TrackerHandle wraps the tracker so event delivery can be drained on shutdown.
type TrackerHandle struct {
	tracking.Tracker
	client *tracking.Client
}

// Shutdown implements do.Shutdownable.
func (h *TrackerHandle) Shutdown() error {
	if h.client != nil {
		return h.client.Shutdown()
	}
	return nil
}

// ProvideTracker provides the product analytics tracker. When tracking
// is disabled a no-op tracker is wired instead.
func ProvideTracker(i do.Injector) (*TrackerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Tracking.Enabled {
		log.Info("Tracking disabled")
		return &TrackerHandle{Tracker: tracking.NewNoop()}, nil
	}

	client := tracking.NewClient(cfg.Tracking.Endpoint, cfg.Tracking.Token, log.Logger)
	log.Info("Tracking enabled", "endpoint", cfg.Tracking.Endpoint)

	return &TrackerHandle{Tracker: client, client: client}, nil
}

// ProvideCheckoutClient provides the billing provider client.
func ProvideCheckoutClient(i do.Injector) (*billing.CheckoutClient, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Billing.CheckoutURL == "" {
		log.Warn("Billing checkout endpoint not configured, checkout requests will fail")
	}

	return billing.NewCheckoutClient(cfg.Billing.CheckoutURL, cfg.Billing.CheckoutAPIKey), nil
}
