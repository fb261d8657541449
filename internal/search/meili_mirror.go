// Package search mirrors published generations into Meilisearch for
// typo-tolerant lookups and offers local "did you mean" suggestions. The
// in-memory index stays authoritative; the mirror is best effort.
package search

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/commission-finder/internal/commission"
	"github.com/meilisearch/meilisearch-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const syncBatchSize = 1000

// ErrMirrorDisabled is returned by a nil Mirror.
var ErrMirrorDisabled = errors.New("fuzzy search mirror disabled")

// MirrorConfig configures the Meilisearch connection.
type MirrorConfig struct {
	Host        string
	APIKey      string
	IndexPrefix string
	Timeout     time.Duration
}

// Document is one leaf as stored in Meilisearch.
type Document struct {
	DocID             string `json:"doc_id"`
	Marketplace       string `json:"marketplace"`
	Generation        uint64 `json:"generation"`
	Category          string `json:"category"`
	SubCategory       string `json:"sub_category"`
	ProductGroup      string `json:"product_group"`
	CommissionPercent string `json:"commission_percent"`
	CommissionText    string `json:"commission_text"`
}

// Mirror keeps one Meilisearch index per marketplace.
type Mirror struct {
	client  meilisearch.ServiceManager
	prefix  string
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	synced map[string]uint64
}

// NewMirror connects to Meilisearch and checks its health.
func NewMirror(config MirrorConfig, logger *zap.Logger) (*Mirror, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := meilisearch.New(config.Host, meilisearch.WithAPIKey(config.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("cannot reach Meilisearch: %w", err)
	}
	return newMirror(client, config, logger), nil
}

func newMirror(client meilisearch.ServiceManager, config MirrorConfig, logger *zap.Logger) *Mirror {
	prefix := config.IndexPrefix
	if prefix == "" {
		prefix = "commissions"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Mirror{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
		logger:  logger,
		synced:  make(map[string]uint64),
	}
}

// IndexName returns the Meilisearch index uid of marketplace id.
func (m *Mirror) IndexName(id string) string {
	return m.prefix + "_" + id
}

// Documents converts a generation into mirror documents in traversal order.
func Documents(id string, gen *commission.Generation) []Document {
	leaves := gen.Index.Leaves()
	docs := make([]Document, len(leaves))
	for i, r := range leaves {
		docs[i] = Document{
			DocID:             strconv.Itoa(i),
			Marketplace:       id,
			Generation:        gen.Number,
			Category:          r.Category,
			SubCategory:       r.SubCategory,
			ProductGroup:      r.ProductGroup,
			CommissionPercent: r.CommissionPercent.String(),
			CommissionText:    r.CommissionText,
		}
	}
	return docs
}

// Sync replaces the documents of id with those of gen. Generations older
// than the last synced one are ignored.
func (m *Mirror) Sync(id string, gen *commission.Generation) error {
	if m == nil {
		return ErrMirrorDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.synced[id]; ok && gen.Number < last {
		return nil
	}

	index := m.client.Index(m.IndexName(id))

	settings := &meilisearch.Settings{
		SearchableAttributes: []string{"product_group", "sub_category", "category"},
		FilterableAttributes: []string{"generation"},
		RankingRules: []string{
			"words",
			"typo",
			"proximity",
			"attribute",
			"sort",
			"exactness",
		},
	}
	task, err := index.UpdateSettings(settings)
	if err != nil {
		return fmt.Errorf("update settings %s: %w", id, err)
	}
	if err := m.waitTask(task.TaskUID); err != nil {
		return fmt.Errorf("update settings %s: %w", id, err)
	}

	if _, err := index.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("clear %s: %w", id, err)
	}

	docs := Documents(id, gen)
	for start := 0; start < len(docs); start += syncBatchSize {
		end := start + syncBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := make([]interface{}, 0, end-start)
		for _, d := range docs[start:end] {
			batch = append(batch, d)
		}
		if _, err := index.AddDocuments(batch, "doc_id"); err != nil {
			return fmt.Errorf("add documents %s: %w", id, err)
		}
	}

	m.synced[id] = gen.Number
	m.logger.Info("Synced fuzzy search mirror",
		zap.String("marketplace", id),
		zap.Uint64("generation", gen.Number),
		zap.Int("documents", len(docs)))
	return nil
}

func (m *Mirror) waitTask(uid int64) error {
	deadline := time.Now().Add(m.timeout)
	for time.Now().Before(deadline) {
		t, err := m.client.GetTask(uid)
		if err != nil {
			return err
		}
		switch t.Status {
		case "succeeded":
			return nil
		case "failed":
			return fmt.Errorf("task %d failed: %v", uid, t.Error)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("task %d timed out", uid)
}

// Hook returns a publish hook that syncs in the background.
func (m *Mirror) Hook() commission.PublishHook {
	return func(id string, gen *commission.Generation) {
		if m == nil || gen == nil {
			return
		}
		go func() {
			if err := m.Sync(id, gen); err != nil {
				m.logger.Warn("Fuzzy search mirror sync failed",
					zap.String("marketplace", id),
					zap.Uint64("generation", gen.Number),
					zap.Error(err))
			}
		}()
	}
}

// FuzzySearch runs a typo-tolerant query against the mirror of id.
func (m *Mirror) FuzzySearch(id, query string, limit int) ([]commission.SearchResult, error) {
	if m == nil {
		return nil, ErrMirrorDisabled
	}
	if query == "" {
		return []commission.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	index := m.client.Index(m.IndexName(id))
	result, err := index.Search(query, &meilisearch.SearchRequest{Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("fuzzy search %s: %w", id, err)
	}
	return parseHits(result.Hits), nil
}

func parseHits(hits []interface{}) []commission.SearchResult {
	results := make([]commission.SearchResult, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		var r commission.SearchResult
		r.Category, _ = hitMap["category"].(string)
		r.SubCategory, _ = hitMap["sub_category"].(string)
		r.ProductGroup, _ = hitMap["product_group"].(string)
		r.CommissionText, _ = hitMap["commission_text"].(string)
		if raw, ok := hitMap["commission_percent"].(string); ok {
			if d, err := decimal.NewFromString(raw); err == nil {
				r.CommissionPercent = d
			}
		}
		r.DisplayProductGroup = r.ProductGroup
		results = append(results, r)
	}
	return results
}
