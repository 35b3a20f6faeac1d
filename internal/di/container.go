// Package di provides dependency injection configuration for the TikTrack server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tiktrack/tiktrack-server/internal/auth"
	"github.com/tiktrack/tiktrack-server/internal/billing"
	"github.com/tiktrack/tiktrack-server/internal/config"
	"github.com/tiktrack/tiktrack-server/internal/di/providers"
	"github.com/tiktrack/tiktrack-server/internal/logger"
	"github.com/tiktrack/tiktrack-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// External clients
	do.Provide(injector, providers.ProvideTracker)
	do.Provide(injector, providers.ProvideCheckoutClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideEntitlementService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideSoundService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.TrackerHandle](injector)
	_ = do.MustInvoke[*billing.CheckoutClient](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.EntitlementService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.SoundService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
