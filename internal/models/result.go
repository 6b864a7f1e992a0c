package models

import "time"

// MatchMode tells how a name search matched.
type MatchMode string

const (
	MatchEmptyStore MatchMode = "empty_store"
	MatchExact      MatchMode = "exact"
	MatchPartial    MatchMode = "partial"
	MatchNotFound   MatchMode = "not_found"
)

// Page is one slice of a caller's saved result set.
type Page struct {
	Records      []*Record `json:"records"`
	Page         int       `json:"page"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
	PageSize     int       `json:"page_size"`
}

// FirstOrdinal is the one-based position of the first record on the page
// within the whole result set.
func (p *Page) FirstOrdinal() int {
	return p.Page*p.PageSize + 1
}

// SearchResponse is the API response for a search that stores a session.
type SearchResponse struct {
	CallerID string    `json:"caller_id"`
	Mode     MatchMode `json:"mode,omitempty"`
	Ranked   bool      `json:"ranked"`
	// Matches holds exact name matches, which are returned directly and not paged.
	Matches []*Record `json:"matches,omitempty"`
	Page    *Page     `json:"page,omitempty"`
}

// DetailResponse is a single record with its market comparison.
type DetailResponse struct {
	Record *Record       `json:"record"`
	Market *MarketReport `json:"market"`
	// ResultsPage is the caller's current page, set when the caller has a saved search.
	ResultsPage *int `json:"results_page,omitempty"`
}

// Status describes the loaded record set and session usage.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	Sessions int       `json:"sessions"`
	Stale    bool      `json:"stale"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}
