package models

import (
	"time"

	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/search"
)

// SearchCacheEntry is a cached search answer. Checksum pins the entry to the
// generation it was computed from, so a reload never serves stale hits.
type SearchCacheEntry struct {
	Marketplace string                    `json:"marketplace"`
	Query       string                    `json:"query"`
	Mode        string                    `json:"mode"`
	Generation  uint64                    `json:"generation"`
	Checksum    string                    `json:"checksum"`
	Results     []commission.SearchResult `json:"results"`
	Suggestions []search.Suggestion       `json:"suggestions,omitempty"`
	CachedAt    time.Time                 `json:"cached_at"`
}

// SearchCacheKey builds the cache key of a normalized query.
func SearchCacheKey(marketplace, checksum, normalizedQuery string) string {
	return "search:" + marketplace + ":" + checksum + ":" + normalizedQuery
}

// SearchCachePrefix is the key prefix of every entry of marketplace.
func SearchCachePrefix(marketplace string) string {
	return "search:" + marketplace + ":"
}
