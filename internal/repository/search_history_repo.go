package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dropiq/dropiq-api/internal/models"
)

// SearchHistoryRepository handles data access for the search history table.
type SearchHistoryRepository struct {
	db *sqlx.DB
}

// NewSearchHistoryRepository creates a new SearchHistoryRepository.
func NewSearchHistoryRepository(db *sqlx.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db}
}

// Save upserts a history row keyed by the lowercased trimmed query,
// incrementing its count. Empty queries are ignored.
func (r *SearchHistoryRepository) Save(ctx context.Context, searchQuery string) (*models.SearchHistory, error) {
	normalized := strings.ToLower(strings.TrimSpace(searchQuery))
	if normalized == "" {
		return nil, nil
	}

	const q = `
        INSERT INTO search_history (search_query, search_count, last_searched_at)
        VALUES ($1, 1, NOW())
        ON CONFLICT (search_query)
        DO UPDATE SET
            search_count = search_history.search_count + 1,
            last_searched_at = NOW()
        RETURNING search_query, search_count, last_searched_at`

	var entry models.SearchHistory
	if err := r.db.GetContext(ctx, &entry, q, normalized); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Recent returns the most recently used queries.
func (r *SearchHistoryRepository) Recent(ctx context.Context, limit int) ([]models.SearchHistory, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
        SELECT search_query, search_count, last_searched_at
        FROM search_history
        ORDER BY last_searched_at DESC
        LIMIT $1`

	entries := []models.SearchHistory{}
	if err := r.db.SelectContext(ctx, &entries, q, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// Popular returns the most searched queries.
func (r *SearchHistoryRepository) Popular(ctx context.Context, limit int) ([]models.SearchHistory, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
        SELECT search_query, search_count, last_searched_at
        FROM search_history
        ORDER BY search_count DESC, last_searched_at DESC
        LIMIT $1`

	entries := []models.SearchHistory{}
	if err := r.db.SelectContext(ctx, &entries, q, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear deletes all history rows.
func (r *SearchHistoryRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM search_history`)
	return err
}
