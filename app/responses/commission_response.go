package responses

import (
	"github.com/commission-finder/app/models"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/reload"
	"github.com/commission-finder/internal/search"
)

// MarketplacesResponse lists the registry.
type MarketplacesResponse struct {
	Marketplaces []commission.MarketplaceInfo `json:"marketplaces"`
	Total        int                          `json:"total"`
}

// SearchResponse answers a search.
type SearchResponse struct {
	Marketplace      string                    `json:"marketplace"`
	Query            string                    `json:"query"`
	Mode             commission.Mode           `json:"mode"`
	Generation       uint64                    `json:"generation"`
	Results          []commission.SearchResult `json:"results"`
	Total            int                       `json:"total"`
	Suggestions      []search.Suggestion       `json:"suggestions,omitempty"`
	CacheHit         bool                      `json:"cache_hit"`
	CacheTTLSeconds  int64                     `json:"cache_ttl_seconds,omitempty"`
	ProcessingTimeMs int64                     `json:"processing_time_ms"`
}

// ListResponse wraps a taxonomy listing.
type ListResponse struct {
	Marketplace string   `json:"marketplace"`
	Items       []string `json:"items"`
	Total       int      `json:"total"`
}

// RateResponse answers a commission rate lookup.
type RateResponse struct {
	Marketplace string `json:"marketplace"`
	commission.Record
	Display string `json:"display"`
}

// ReloadResponse reports one or more reloads.
type ReloadResponse struct {
	ReloadID string                     `json:"reload_id"`
	Reports  []*commission.ReloadReport `json:"reports"`
	Failed   int                        `json:"failed"`
}

// ReloadStatusResponse lists watcher states.
type ReloadStatusResponse struct {
	Enabled  bool            `json:"enabled"`
	Statuses []reload.Status `json:"statuses"`
}

// ReloadHistoryResponse lists persisted reload attempts, newest first.
type ReloadHistoryResponse struct {
	Entries []models.ReloadHistory `json:"entries"`
	Total   int                    `json:"total"`
}

// AdminStatsResponse combines cache and registry state.
type AdminStatsResponse struct {
	Cache         interface{}                  `json:"cache"`
	Marketplaces  []commission.MarketplaceInfo `json:"marketplaces"`
	UptimeSeconds int64                        `json:"uptime_seconds"`
	MemoryUsage   map[string]interface{}       `json:"memory_usage"`
	LastUpdated   string                       `json:"last_updated"`
}

// ErrorResponse carries a SCREAMING_CASE code and a human message.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// SuccessResponse wraps calculator and admin answers.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// HealthCheckResponse answers /health.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
