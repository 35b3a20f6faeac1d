package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tiktrack/tiktrack-server/internal/domain"
	domainerrors "github.com/tiktrack/tiktrack-server/internal/errors"
	"github.com/tiktrack/tiktrack-server/internal/store"
)

// EntitlementService decides whether a user may reach gated features.
// Verdicts are cached per user for a short TTL so that route guards do
// not hit the store on every request. Lookups fail closed: any error
// or missing subscription means not entitled.
type EntitlementService struct {
	store        *store.Store
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	cache    map[string]entitlementEntry
	inflight map[string]*entitlementFetch
}

type entitlementEntry struct {
	entitled  bool
	expiresAt time.Time
}

// entitlementFetch deduplicates concurrent lookups for the same user.
type entitlementFetch struct {
	done     chan struct{}
	entitled bool
}

// NewEntitlementService creates a new entitlement service.
func NewEntitlementService(
	store *store.Store,
	cacheTTL time.Duration,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) *EntitlementService {
	return &EntitlementService{
		store:        store,
		cacheTTL:     cacheTTL,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		cache:        make(map[string]entitlementEntry),
		inflight:     make(map[string]*entitlementFetch),
	}
}

// Check reports whether the user is entitled, serving from cache when
// the cached verdict is still fresh.
func (s *EntitlementService) Check(ctx context.Context, userID string) bool {
	s.mu.Lock()
	if entry, ok := s.cache[userID]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.Unlock()
		return entry.entitled
	}

	// Join an in-progress lookup for the same user rather than
	// issuing a duplicate store read.
	if call, ok := s.inflight[userID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.entitled
		case <-ctx.Done():
			return false
		}
	}

	call := &entitlementFetch{done: make(chan struct{})}
	s.inflight[userID] = call
	s.mu.Unlock()

	entitled := s.fetch(ctx, userID)

	s.mu.Lock()
	s.cache[userID] = entitlementEntry{
		entitled:  entitled,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	delete(s.inflight, userID)
	s.mu.Unlock()

	call.entitled = entitled
	close(call.done)

	return entitled
}

// Refresh re-checks the subscription, bypassing the cache, and stores
// the fresh verdict. Used after checkout returns or when the user
// explicitly asks for a re-check.
func (s *EntitlementService) Refresh(ctx context.Context, userID string) bool {
	entitled := s.fetch(ctx, userID)

	s.mu.Lock()
	s.cache[userID] = entitlementEntry{
		entitled:  entitled,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return entitled
}

// Status returns the user's subscription record, uncached.
func (s *EntitlementService) Status(ctx context.Context, userID string) (*domain.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	sub, err := s.store.Subscriptions.GetByIndex(ctx, "user", userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("no subscription found")
		}
		return nil, err
	}
	return sub, nil
}

// InvalidateUser drops the cached verdict for a user (sign-out).
func (s *EntitlementService) InvalidateUser(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

// SweepExpired removes cache entries past their TTL and returns how
// many were dropped. Stale entries are harmless (Check re-fetches past
// the TTL) but sweeping keeps the map from growing unbounded.
func (s *EntitlementService) SweepExpired() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for userID, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, userID)
			swept++
		}
	}
	return swept
}

// Reset drops all cached verdicts.
func (s *EntitlementService) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]entitlementEntry)
	s.mu.Unlock()
}

// fetch reads the subscription and evaluates it. The lookup is bounded
// by the configured timeout so a slow store cannot stall a guard.
func (s *EntitlementService) fetch(ctx context.Context, userID string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	sub, err := s.store.Subscriptions.GetByIndex(ctx, "user", userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if s.logger != nil {
				s.logger.Debug("No subscription on record", "user_id", userID)
			}
		} else if s.logger != nil {
			// Fail closed on lookup errors
			s.logger.Warn("Entitlement lookup failed",
				"user_id", userID,
				"error", err,
			)
		}
		return false
	}

	return sub.IsEntitled(time.Now())
}
