package models

import "time"

// SearchHistory is one row of the search_history table, keyed by the
// lowercased trimmed query text.
type SearchHistory struct {
	Query          string    `db:"search_query" json:"search_query"`
	SearchCount    int       `db:"search_count" json:"search_count"`
	LastSearchedAt time.Time `db:"last_searched_at" json:"last_searched_at"`
}
