package providers

import (
	"github.com/samber/do/v2"

	"github.com/tiktrack/tiktrack-server/internal/auth"
	"github.com/tiktrack/tiktrack-server/internal/config"
	"github.com/tiktrack/tiktrack-server/internal/logger"
	"github.com/tiktrack/tiktrack-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideEntitlementService provides the subscription entitlement service.
func ProvideEntitlementService(i do.Injector) (*service.EntitlementService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEntitlementService(
		storeHandle.Store,
		cfg.Entitlement.CacheTTL,
		cfg.Entitlement.FetchTimeout,
		log.Logger,
	), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	entitlementService := do.MustInvoke[*service.EntitlementService](i)
	trackerHandle := do.MustInvoke[*TrackerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		tokenService,
		sessionService,
		entitlementService,
		trackerHandle.Tracker,
		log.Logger,
	), nil
}

// ProvideSoundService provides the tracked sound service.
func ProvideSoundService(i do.Injector) (*service.SoundService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	trackerHandle := do.MustInvoke[*TrackerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSoundService(storeHandle.Store, trackerHandle.Tracker, log.Logger), nil
}
