package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tiktrack/tiktrack-server/internal/domain"
	"github.com/tiktrack/tiktrack-server/internal/http/response"
	"github.com/tiktrack/tiktrack-server/internal/metrics"
	"github.com/tiktrack/tiktrack-server/internal/service"
	"github.com/tiktrack/tiktrack-server/internal/tableview"
)

// iconPlaceholder is served for sounds still waiting on their first scrape.
const iconPlaceholder = "/static/sound-placeholder.svg"

// SoundRow is one dashboard table row.
type SoundRow struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"`
	IconURL   string    `json:"icon_url"`
	Videos    int64     `json:"videos"`
	Importing bool      `json:"importing"`
	Change1D  string    `json:"change_1d"`
	Delta1D   string    `json:"delta_1d"`
	Change1W  string    `json:"change_1w"`
	Delta1W   string    `json:"delta_1w"`
	Change1M  string    `json:"change_1m"`
	Delta1M   string    `json:"delta_1m"`
	CreatedAt time.Time `json:"created_at"`
}

// SoundPage is one page of dashboard table rows.
type SoundPage struct {
	Items      []SoundRow       `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageCount  int              `json:"page_count"`
	PageSize   int              `json:"page_size"`
	Query      string           `json:"query,omitempty"`
	Sort       tableview.Column `json:"sort"`
	Descending bool             `json:"descending"`
}

// changeCell renders the percent/delta pair shown in one change column.
func changeCell(history []int64, w metrics.Window) (pct, delta string) {
	c := metrics.Compute(history, w)
	if !c.Defined {
		return metrics.FormatPercent(c), "-"
	}
	return metrics.FormatPercent(c), metrics.FormatDeltaCompact(c.Delta)
}

func mapSoundRow(sound *domain.Sound) SoundRow {
	row := SoundRow{
		ID:        sound.ID,
		URL:       sound.URL,
		Name:      sound.DisplayName(),
		Creator:   sound.DisplayCreator(),
		IconURL:   sound.DisplayIcon(iconPlaceholder),
		Videos:    sound.Videos(),
		Importing: sound.IsImporting(),
		CreatedAt: sound.CreatedAt,
	}
	row.Change1D, row.Delta1D = changeCell(sound.ViewHistory, metrics.Day)
	row.Change1W, row.Delta1W = changeCell(sound.ViewHistory, metrics.Week)
	row.Change1M, row.Delta1M = changeCell(sound.ViewHistory, metrics.Month)
	return row
}

// tableParams reads sort/search/page state from the query string,
// falling back to the dashboard defaults.
func tableParams(r *http.Request) tableview.Params {
	p := tableview.DefaultParams()

	q := r.URL.Query()
	if v := q.Get("q"); v != "" {
		p.Query = v
	}
	if v := q.Get("sort"); v != "" {
		p.Sort = tableview.Column(v)
	}
	if v := q.Get("dir"); v != "" {
		p.Desc = v != "asc"
	}
	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil {
			p.Page = page
		}
	}

	return p
}

// handleListSounds returns one page of the user's tracked sounds.
// GET /api/v1/sounds?q=&sort=&dir=&page=
func (s *Server) handleListSounds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	page, err := s.soundService.ListPage(ctx, userID, tableParams(r))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	rows := make([]SoundRow, 0, len(page.Items))
	for _, sound := range page.Items {
		rows = append(rows, mapSoundRow(sound))
	}

	response.Success(w, SoundPage{
		Items:      rows,
		Total:      page.Total,
		Page:       page.Page,
		PageCount:  page.PageCount,
		PageSize:   page.PageSize,
		Query:      page.Query,
		Sort:       page.Sort,
		Descending: page.Descending,
	}, s.logger)
}

// handleAddSound starts tracking a new sound.
// POST /api/v1/sounds
func (s *Server) handleAddSound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req service.AddSoundRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	sound, err := s.soundService.Add(ctx, userID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapSoundRow(sound), s.logger)
}

// handleGetSound returns a single tracked sound.
// GET /api/v1/sounds/{id}
func (s *Server) handleGetSound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	soundID := chi.URLParam(r, "id")

	sound, err := s.soundService.Get(ctx, userID, soundID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapSoundRow(sound), s.logger)
}

// handleDeleteSound stops tracking a sound.
// DELETE /api/v1/sounds/{id}
func (s *Server) handleDeleteSound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	soundID := chi.URLParam(r, "id")

	if err := s.soundService.Delete(ctx, userID, soundID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleGetSoundTrend returns sparkline geometry and change metrics.
// GET /api/v1/sounds/{id}/trend
func (s *Server) handleGetSoundTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	soundID := chi.URLParam(r, "id")

	trend, err := s.soundService.Trend(ctx, userID, soundID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, trend, s.logger)
}
