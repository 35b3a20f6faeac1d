package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tiktrack/tiktrack-server/internal/domain"
	domainerrors "github.com/tiktrack/tiktrack-server/internal/errors"
	"github.com/tiktrack/tiktrack-server/internal/id"
	"github.com/tiktrack/tiktrack-server/internal/metrics"
	"github.com/tiktrack/tiktrack-server/internal/store"
	"github.com/tiktrack/tiktrack-server/internal/tableview"
	"github.com/tiktrack/tiktrack-server/internal/tracking"
)

// Sparkline geometry served to the dashboard table.
const (
	sparklineWidth  = 120
	sparklineHeight = 36
)

// SoundService manages a user's tracked sounds.
type SoundService struct {
	store   *store.Store
	tracker tracking.Tracker
	logger  *slog.Logger
}

// NewSoundService creates a new sound service.
func NewSoundService(store *store.Store, tracker tracking.Tracker, logger *slog.Logger) *SoundService {
	return &SoundService{
		store:   store,
		tracker: tracker,
		logger:  logger,
	}
}

// AddSoundRequest contains the TikTok URL of a sound to track.
type AddSoundRequest struct {
	URL string `json:"url" validate:"required"`
}

// TrendChange is a formatted change metric for one window.
type TrendChange struct {
	Percent string `json:"percent"`
	Delta   string `json:"delta"`
}

// TrendResponse contains sparkline geometry and change metrics for a sound.
type TrendResponse struct {
	SoundID string          `json:"sound_id"`
	Path    string          `json:"path"`
	Points  []metrics.Point `json:"points"`
	Day     TrendChange     `json:"day"`
	Week    TrendChange     `json:"week"`
	Month   TrendChange     `json:"month"`
}

// List returns all sounds tracked by a user, unsorted.
func (s *SoundService) List(ctx context.Context, userID string) ([]*domain.Sound, error) {
	sounds, err := s.store.ListUserSounds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sounds: %w", err)
	}
	return sounds, nil
}

// ListPage returns one page of a user's sounds, filtered and sorted.
func (s *SoundService) ListPage(ctx context.Context, userID string, params tableview.Params) (*tableview.Page, error) {
	sounds, err := s.store.ListUserSounds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sounds: %w", err)
	}
	page := tableview.Apply(sounds, params)
	return &page, nil
}

// Add starts tracking a new sound. The URL is validated before any
// store access; the sound is created in the importing state and filled
// in later by the scrape pipeline.
func (s *SoundService) Add(ctx context.Context, userID string, req AddSoundRequest) (*domain.Sound, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	rawURL := strings.TrimSpace(req.URL)
	if err := validateSoundURL(rawURL); err != nil {
		return nil, err
	}

	soundID, err := id.Generate("sound")
	if err != nil {
		return nil, fmt.Errorf("generate sound ID: %w", err)
	}

	sound := &domain.Sound{
		ID:        soundID,
		UserID:    userID,
		URL:       rawURL,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateSound(ctx, sound); err != nil {
		if errors.Is(err, store.ErrSoundURLExists) {
			return nil, domainerrors.DuplicateURL("you are already tracking this sound")
		}
		return nil, fmt.Errorf("create sound: %w", err)
	}

	s.tracker.Track("sound_added", map[string]any{
		"user_id":  userID,
		"sound_id": soundID,
	})

	if s.logger != nil {
		s.logger.Info("Sound added", "user_id", userID, "sound_id", soundID)
	}

	return sound, nil
}

// Get returns a sound after verifying the caller owns it.
func (s *SoundService) Get(ctx context.Context, userID, soundID string) (*domain.Sound, error) {
	sound, err := s.store.GetSound(ctx, soundID)
	if err != nil {
		if errors.Is(err, store.ErrSoundNotFound) {
			if s.logger != nil {
				s.logger.Debug("Sound not found", "sound_id", soundID)
			}
			return nil, domainerrors.NotFound("sound not found")
		}
		return nil, fmt.Errorf("get sound: %w", err)
	}

	if sound.UserID != userID {
		// Surface the same response as a missing sound so IDs
		// cannot be probed across accounts.
		if s.logger != nil {
			s.logger.Warn("Sound access denied",
				"sound_id", soundID,
				"owner_id", sound.UserID,
				"user_id", userID,
			)
		}
		return nil, domainerrors.NotFound("sound not found")
	}

	return sound, nil
}

// Delete stops tracking a sound. Idempotent from the caller's view:
// deleting a sound that is already gone reports not found.
func (s *SoundService) Delete(ctx context.Context, userID, soundID string) error {
	sound, err := s.Get(ctx, userID, soundID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSound(ctx, sound.ID); err != nil {
		return fmt.Errorf("delete sound: %w", err)
	}

	s.tracker.Track("sound_removed", map[string]any{
		"user_id":  userID,
		"sound_id": soundID,
	})

	if s.logger != nil {
		s.logger.Info("Sound deleted", "user_id", userID, "sound_id", soundID)
	}

	return nil
}

// Trend computes sparkline geometry and change metrics from a sound's
// view history.
func (s *SoundService) Trend(ctx context.Context, userID, soundID string) (*TrendResponse, error) {
	sound, err := s.Get(ctx, userID, soundID)
	if err != nil {
		return nil, err
	}

	spark := metrics.Sparkline{
		Width:      sparklineWidth,
		Height:     sparklineHeight,
		MaxSamples: metrics.DefaultSparklineSamples,
	}

	var points []metrics.Point
	for p := range spark.Points(sound.ViewHistory) {
		points = append(points, p)
	}

	return &TrendResponse{
		SoundID: sound.ID,
		Path:    spark.Path(sound.ViewHistory),
		Points:  points,
		Day:     trendChange(sound.ViewHistory, metrics.Day),
		Week:    trendChange(sound.ViewHistory, metrics.Week),
		Month:   trendChange(sound.ViewHistory, metrics.Month),
	}, nil
}

func trendChange(history []int64, w metrics.Window) TrendChange {
	c := metrics.Compute(history, w)
	tc := TrendChange{Percent: metrics.FormatPercent(c)}
	if c.Defined {
		tc.Delta = metrics.FormatDeltaCompact(c.Delta)
	} else {
		tc.Delta = "-"
	}
	return tc
}

// validateSoundURL checks that the URL parses and points at TikTok.
func validateSoundURL(rawURL string) error {
	if rawURL == "" {
		return domainerrors.Validation("url is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return domainerrors.Validation("url must be a valid absolute URL")
	}

	host := strings.ToLower(parsed.Hostname())
	if host != "tiktok.com" && !strings.HasSuffix(host, ".tiktok.com") {
		return domainerrors.Validation("url must be a tiktok.com link")
	}

	return nil
}
