// Package tableview filters, sorts and paginates in-memory sound
// collections for the dashboard table.
package tableview

import (
	"sort"
	"strings"

	"github.com/tiktrack/tiktrack-server/internal/domain"
	"github.com/tiktrack/tiktrack-server/internal/metrics"
)

// DefaultPageSize is the fixed dashboard page size.
const DefaultPageSize = 10

// Column identifies a sortable table column.
type Column string

// Sortable columns. ColumnSound is an alias for ColumnName matching
// the dashboard's column label.
const (
	ColumnName    Column = "name"
	ColumnSound   Column = "sound"
	ColumnCreator Column = "creator"
	ColumnVideos  Column = "videos"
	Column1D      Column = "1d"
	Column1W      Column = "1w"
	Column1M      Column = "1m"
	ColumnCreated Column = "created"
)

// Params captures the table state: sort column and direction, search
// query, and page number (1-based).
type Params struct {
	Sort     Column
	Desc     bool
	Query    string
	Page     int
	PageSize int
}

// DefaultParams returns the initial table state: descending by video
// count, no query, first page.
func DefaultParams() Params {
	return Params{
		Sort:     ColumnVideos,
		Desc:     true,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Page is one page of the filtered, sorted collection.
type Page struct {
	Items      []*domain.Sound `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageCount  int             `json:"page_count"`
	PageSize   int             `json:"page_size"`
	Query      string          `json:"query,omitempty"`
	Sort       Column          `json:"sort"`
	Descending bool            `json:"descending"`
}

// Apply filters, sorts and paginates the collection synchronously over
// the already-fetched records. The input slice is not modified.
func Apply(sounds []*domain.Sound, p Params) Page {
	p = normalize(p)

	filtered := filter(sounds, p.Query)
	sortSounds(filtered, p.Sort, p.Desc)

	total := len(filtered)
	pageCount := (total + p.PageSize - 1) / p.PageSize
	if pageCount == 0 {
		pageCount = 1
	}
	if p.Page > pageCount {
		p.Page = pageCount
	}

	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      filtered[start:end],
		Total:      total,
		Page:       p.Page,
		PageCount:  pageCount,
		PageSize:   p.PageSize,
		Query:      p.Query,
		Sort:       p.Sort,
		Descending: p.Desc,
	}
}

func normalize(p Params) Params {
	if p.Sort == ColumnSound {
		p.Sort = ColumnName
	}
	switch p.Sort {
	case ColumnName, ColumnCreator, ColumnVideos, Column1D, Column1W, Column1M, ColumnCreated:
	default:
		p.Sort = ColumnVideos
		p.Desc = true
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// filter keeps sounds whose display name or creator contains the query,
// case-insensitively. An empty query keeps everything.
func filter(sounds []*domain.Sound, query string) []*domain.Sound {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]*domain.Sound, 0, len(sounds))
	for _, s := range sounds {
		if query == "" ||
			strings.Contains(strings.ToLower(s.DisplayName()), query) ||
			strings.Contains(strings.ToLower(s.DisplayCreator()), query) {
			out = append(out, s)
		}
	}
	return out
}

func sortSounds(sounds []*domain.Sound, col Column, desc bool) {
	sort.SliceStable(sounds, func(i, j int) bool {
		a, b := sounds[i], sounds[j]
		if desc {
			a, b = b, a
		}

		var less, equal bool
		switch col {
		case ColumnName:
			an, bn := strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())
			less, equal = an < bn, an == bn
		case ColumnCreator:
			an, bn := strings.ToLower(a.DisplayCreator()), strings.ToLower(b.DisplayCreator())
			less, equal = an < bn, an == bn
		case Column1D:
			less, equal = comparePct(a, b, metrics.Day)
		case Column1W:
			less, equal = comparePct(a, b, metrics.Week)
		case Column1M:
			less, equal = comparePct(a, b, metrics.Month)
		case ColumnCreated:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		default: // ColumnVideos
			av, bv := a.Videos(), b.Videos()
			less, equal = av < bv, av == bv
		}

		if equal {
			// Deterministic ordering for equal keys, unaffected by
			// the sort direction.
			return sounds[i].ID < sounds[j].ID
		}
		return less
	})
}

// comparePct orders two sounds by a change-metric window. Sounds with
// too little history sort below every defined value, so they land at
// the bottom of the default descending view. ±Inf compare like any
// other float64.
func comparePct(a, b *domain.Sound, w metrics.Window) (less, equal bool) {
	ca := metrics.Compute(a.ViewHistory, w)
	cb := metrics.Compute(b.ViewHistory, w)

	switch {
	case !ca.Defined && !cb.Defined:
		return false, true
	case !ca.Defined:
		return true, false
	case !cb.Defined:
		return false, false
	}
	return ca.Pct < cb.Pct, ca.Pct == cb.Pct
}
