package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CorrectionEntry is one cached AI spelling-correction verdict, keyed by the
// normalized query it was produced for.
type CorrectionEntry struct {
	Corrected  string    `json:"corrected"`
	Confidence string    `json:"confidence"`
	CachedAt   time.Time `json:"cachedAt"`
}

// SpellingCache stores adopted AI corrections so repeated misspelled queries
// skip the external call. Entries expire after a day; the static correction
// tables change with deployments, not at runtime, so a short TTL is enough.
type SpellingCache struct {
	redis *RedisClient
}

// NewSpellingCache creates a new SpellingCache.
func NewSpellingCache(redis *RedisClient) *SpellingCache {
	return &SpellingCache{redis: redis}
}

const spellingTTL = 24 * time.Hour

func (c *SpellingCache) key(normalizedQuery string) string {
	return fmt.Sprintf("spelling:correction:%s", normalizedQuery)
}

// Get returns the cached correction for a normalized query, or (nil, nil)
// on a cache miss.
func (c *SpellingCache) Get(ctx context.Context, normalizedQuery string) (*CorrectionEntry, error) {
	raw, err := c.redis.Get(ctx, c.key(normalizedQuery))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry CorrectionEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal correction entry: %w", err)
	}
	return &entry, nil
}

// Set stores an adopted correction.
func (c *SpellingCache) Set(ctx context.Context, normalizedQuery string, entry *CorrectionEntry) error {
	entry.CachedAt = time.Now()
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal correction entry: %w", err)
	}
	return c.redis.Set(ctx, c.key(normalizedQuery), string(raw), spellingTTL)
}
