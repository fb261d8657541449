package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/commission-finder/app/models"
	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/normalizer"
	"github.com/commission-finder/internal/search"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrRateNotFound is returned when a leaf has no commission rate.
var ErrRateNotFound = errors.New("commission rate not found")

// CommissionService answers read queries against the marketplace registry.
type CommissionService struct {
	registry   *commission.Registry
	calculator *CalculatorService
	suggester  *search.Suggester
	mirror     *search.Mirror
	startTime  time.Time
	logger     *zap.Logger
}

// NewCommissionService wires the registry with the calculators. mirror may be
// nil when fuzzy search is not configured.
func NewCommissionService(registry *commission.Registry, calculator *CalculatorService, mirror *search.Mirror, logger *zap.Logger) *CommissionService {
	return &CommissionService{
		registry:   registry,
		calculator: calculator,
		suggester:  search.NewSuggester(5),
		mirror:     mirror,
		startTime:  time.Now(),
		logger:     logger,
	}
}

func (cs *CommissionService) GetStartTime() time.Time {
	return cs.startTime
}

func (cs *CommissionService) Marketplaces() []commission.MarketplaceInfo {
	return cs.registry.ListMarketplaces()
}

// Ready reports whether at least one marketplace has a published generation.
func (cs *CommissionService) Ready() bool {
	for _, m := range cs.registry.ListMarketplaces() {
		if m.Loaded {
			return true
		}
	}
	return false
}

// CacheKey returns the search cache key of query against the current
// generation of id. ok is false when nothing is cacheable: the marketplace
// has no generation yet or the query normalizes to nothing.
func (cs *CommissionService) CacheKey(id, query string) (key string, ok bool, err error) {
	gen, err := cs.registry.Current(id)
	if err != nil {
		return "", false, err
	}
	q := normalizer.Normalize(query)
	if gen == nil || q == "" {
		return "", false, nil
	}
	return models.SearchCacheKey(id, gen.Signature.Checksum, q), true, nil
}

// Search queries the current generation of id with the marketplace's
// presentation mode. When nothing matches, close taxonomy names are offered
// as suggestions.
func (cs *CommissionService) Search(id string, req requests.SearchRequest) (*models.SearchCacheEntry, error) {
	profile, err := cs.registry.Profile(id)
	if err != nil {
		return nil, err
	}
	gen, err := cs.registry.Current(id)
	if err != nil {
		return nil, err
	}

	entry := &models.SearchCacheEntry{
		Marketplace: id,
		Query:       normalizer.Normalize(req.Q),
		Mode:        string(profile.Mode),
		Results:     []commission.SearchResult{},
		CachedAt:    time.Now(),
	}
	if gen == nil {
		return entry, nil
	}
	entry.Generation = gen.Number
	entry.Checksum = gen.Signature.Checksum
	entry.Results = gen.Index.Search(req.Q, profile.Mode)

	if len(entry.Results) == 0 && entry.Query != "" {
		entry.Suggestions = cs.suggester.Suggest(req.Q, search.Vocabulary(gen.Index))
	}
	return entry, nil
}

// FuzzySearch runs a typo-tolerant query through the search mirror.
func (cs *CommissionService) FuzzySearch(id string, req requests.SearchRequest) ([]commission.SearchResult, error) {
	if _, err := cs.registry.Profile(id); err != nil {
		return nil, err
	}
	results, err := cs.mirror.FuzzySearch(id, req.Q, req.Limit)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (cs *CommissionService) Categories(id string) ([]string, error) {
	return cs.registry.Categories(id)
}

func (cs *CommissionService) SubCategories(id string, req requests.SubCategoriesRequest) ([]string, error) {
	return cs.registry.SubCategories(id, req.Category)
}

func (cs *CommissionService) ProductGroups(id string, req requests.ProductGroupsRequest) ([]string, error) {
	return cs.registry.ProductGroups(id, req.Category, req.SubCategory)
}

// Rate looks up the resolved commission of one leaf.
func (cs *CommissionService) Rate(id string, req requests.RateRequest) (commission.Record, error) {
	rec, ok, err := cs.registry.CommissionRate(id, req.Category, req.SubCategory, req.ProductGroup)
	if err != nil {
		return commission.Record{}, err
	}
	if !ok {
		return commission.Record{}, fmt.Errorf("%w: %s / %s / %s", ErrRateNotFound, req.Category, req.SubCategory, req.ProductGroup)
	}
	return rec, nil
}

// Calculate computes a payout breakdown for marketplace id. Without an
// explicit commission percent the rate of the named leaf is used.
func (cs *CommissionService) Calculate(id string, req requests.CalculateCommissionRequest) (models.CommissionCalculation, error) {
	if _, err := cs.registry.Profile(id); err != nil {
		return models.CommissionCalculation{}, err
	}

	var percent decimal.Decimal
	if req.CommissionPercent != nil {
		percent = *req.CommissionPercent
	} else {
		if req.ProductGroup == "" {
			return models.CommissionCalculation{}, fmt.Errorf("%w: commissionPercent or productGroup is required", ErrInvalidInput)
		}
		rec, err := cs.Rate(id, requests.RateRequest{
			Category:     req.Category,
			SubCategory:  req.SubCategory,
			ProductGroup: req.ProductGroup,
		})
		if err != nil {
			return models.CommissionCalculation{}, err
		}
		percent = rec.CommissionPercent
	}
	if percent.IsNegative() {
		return models.CommissionCalculation{}, fmt.Errorf("%w: commission percent must not be negative", ErrInvalidInput)
	}

	result := cs.calculator.CalculateCommission(id, req, percent)
	if result.Error != "" {
		return result, fmt.Errorf("%w: %s", ErrInvalidInput, result.Error)
	}
	return result, nil
}
