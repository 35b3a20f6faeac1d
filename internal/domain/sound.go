package domain

import "time"

// Placeholder values substituted at display time for sounds whose first
// scrape has not completed yet (deferred enrichment).
const (
	PlaceholderSoundName   = "Processing..."
	PlaceholderCreatorName = "Unknown creator"
)

// Sound is a tracked TikTok sound owned by a user.
//
// Measurement fields (VideoCount, ViewHistory, the percent changes and
// LastScrape) are written only by the external scraping pipeline; this
// application reads them and never mutates them. ID and CreatedAt are
// immutable once assigned.
type Sound struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`

	// Display fields, enriched by the scraper after creation.
	// Nil until the first scrape completes.
	SoundName   *string `json:"sound_name"`
	CreatorName *string `json:"creator_name"`
	IconURL     *string `json:"icon_url"`

	// Measurement fields. VideoCount distinguishes "not yet measured"
	// (nil) from a measured zero.
	VideoCount  *int64  `json:"video_count"`
	ViewHistory []int64 `json:"view_history"`

	PctChange1D *float64 `json:"pct_change_1d"`
	PctChange1W *float64 `json:"pct_change_1w"`
	PctChange1M *float64 `json:"pct_change_1m"`

	// LastScrape is nil while the first import is still pending. That is
	// a normal UI state ("importing"), not an error.
	LastScrape *time.Time `json:"last_scrape"`
}

// IsImporting reports whether the sound is still waiting on its first
// successful scrape.
func (s *Sound) IsImporting() bool {
	return s.LastScrape == nil
}

// DisplayName returns the sound name, or the placeholder while the first
// import is pending.
func (s *Sound) DisplayName() string {
	if s.SoundName == nil || *s.SoundName == "" {
		return PlaceholderSoundName
	}
	return *s.SoundName
}

// DisplayCreator returns the creator name, or the placeholder while the
// first import is pending.
func (s *Sound) DisplayCreator() string {
	if s.CreatorName == nil || *s.CreatorName == "" {
		return PlaceholderCreatorName
	}
	return *s.CreatorName
}

// DisplayIcon returns the icon URL, falling back to the given placeholder
// image when the scraper has not supplied one yet.
func (s *Sound) DisplayIcon(placeholder string) string {
	if s.IconURL == nil || *s.IconURL == "" {
		return placeholder
	}
	return *s.IconURL
}

// Videos returns the measured video count, or zero when the sound has not
// been measured yet.
func (s *Sound) Videos() int64 {
	if s.VideoCount == nil {
		return 0
	}
	return *s.VideoCount
}
