package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/commission-finder/internal/tabular"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Marketplace pairs a profile with the source its data is read from.
type Marketplace struct {
	Profile Profile
	Source  tabular.Source
}

// MarketplaceInfo summarizes one registry entry.
type MarketplaceInfo struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Mode          Mode      `json:"mode"`
	Policy        Policy    `json:"policy"`
	Source        string    `json:"source"`
	Loaded        bool      `json:"loaded"`
	Generation    uint64    `json:"generation"`
	Records       int       `json:"records"`
	Leaves        int       `json:"leaves"`
	ProductGroups int       `json:"productGroups"`
	LoadedAt      time.Time `json:"loadedAt,omitempty"`
	Checksum      string    `json:"checksum,omitempty"`
}

// PublishHook observes every newly published generation. Hooks run on the
// reloading goroutine after the swap; slow work belongs in a goroutine.
type PublishHook func(id string, gen *Generation)

type entry struct {
	profile Profile
	source  tabular.Source
	current atomic.Pointer[Generation]
	mu      sync.Mutex
}

func (e *entry) index() *Index {
	if g := e.current.Load(); g != nil {
		return g.Index
	}
	return nil
}

// Registry maps marketplace ids to their profile, source and currently
// published generation. The set of marketplaces is fixed at construction.
type Registry struct {
	entries map[string]*entry
	order   []string
	logger  *zap.Logger

	hooksMu sync.RWMutex
	hooks   []PublishHook
}

// NewRegistry validates the profiles and creates an empty registry. Nothing
// is loaded until Reload, ReloadAll or Restore is called.
func NewRegistry(markets []Marketplace, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		entries: make(map[string]*entry, len(markets)),
		logger:  logger,
	}

	for _, m := range markets {
		p := m.Profile
		p.ID = strings.TrimSpace(p.ID)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid marketplace profile: %w", err)
		}
		if _, dup := r.entries[p.ID]; dup {
			return nil, fmt.Errorf("duplicate marketplace id %q", p.ID)
		}
		if m.Source == nil {
			return nil, fmt.Errorf("marketplace %q has no source", p.ID)
		}
		p.Policy, _ = ParsePolicy(string(p.Policy))
		p.Mode, _ = ParseMode(string(p.Mode))
		if p.Label == "" {
			p.Label = p.ID
		}
		r.entries[p.ID] = &entry{profile: p, source: m.Source}
		r.order = append(r.order, p.ID)
	}
	return r, nil
}

// OnPublish registers a hook for new generations.
func (r *Registry) OnPublish(hook PublishHook) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, hook)
}

func (r *Registry) notify(id string, gen *Generation) {
	r.hooksMu.RLock()
	hooks := append([]PublishHook(nil), r.hooks...)
	r.hooksMu.RUnlock()
	for _, h := range hooks {
		h(id, gen)
	}
}

func (r *Registry) lookup(id string) (*entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarketplace, id)
	}
	return e, nil
}

// IDs returns marketplace ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Profile returns the profile of id.
func (r *Registry) Profile(id string) (Profile, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Profile{}, err
	}
	return e.profile, nil
}

// Current returns the published generation of id, nil when nothing has been
// loaded yet.
func (r *Registry) Current(id string) (*Generation, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.current.Load(), nil
}

// ListMarketplaces describes every marketplace in registration order.
func (r *Registry) ListMarketplaces() []MarketplaceInfo {
	out := make([]MarketplaceInfo, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		info := MarketplaceInfo{
			ID:     id,
			Label:  e.profile.Label,
			Mode:   e.profile.Mode,
			Policy: e.profile.Policy,
			Source: e.source.Describe(),
		}
		if g := e.current.Load(); g != nil {
			info.Loaded = true
			info.Generation = g.Number
			info.Records = g.Len()
			info.Leaves = g.Index.Len()
			info.ProductGroups = g.Index.ProductGroupCount()
			info.LoadedAt = g.LoadedAt
			info.Checksum = g.Signature.Checksum
		}
		out = append(out, info)
	}
	return out
}

// Search queries the current generation of id with the marketplace's
// presentation mode.
func (r *Registry) Search(id, query string) ([]SearchResult, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.index().Search(query, e.profile.Mode), nil
}

// Categories lists the categories of id.
func (r *Registry) Categories(id string) ([]string, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.index().Categories(), nil
}

// SubCategories lists the subcategories of category.
func (r *Registry) SubCategories(id, category string) ([]string, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.index().SubCategories(category), nil
}

// ProductGroups lists the product groups of (category, subCategory).
func (r *Registry) ProductGroups(id, category, subCategory string) ([]string, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.index().ProductGroups(category, subCategory), nil
}

// CommissionRate looks up the resolved record of a leaf. A missing leaf is
// reported through the bool, not as an error.
func (r *Registry) CommissionRate(id, category, subCategory, productGroup string) (Record, bool, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := e.index().Rate(category, subCategory, productGroup)
	return rec, ok, nil
}

// Reload rebuilds the generation of id from its source and publishes it.
//
// Without force the source stamp and then the checksum are compared with the
// published generation and an unchanged source is a no-op. Reloads of the
// same marketplace are serialized; a cancelled context discards a build that
// has not been published yet. On any error the previous generation stays.
func (r *Registry) Reload(ctx context.Context, id string, force bool) (*ReloadReport, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	prev := e.current.Load()
	report := &ReloadReport{
		Marketplace:   id,
		Forced:        force,
		RecordsBefore: prev.Len(),
		RecordsAfter:  prev.Len(),
		StartedAt:     start,
	}
	var prevNumber uint64
	if prev != nil {
		prevNumber = prev.Number
		report.Generation = prev.Number
		report.Checksum = prev.Signature.Checksum
	}

	finish := func(err error) (*ReloadReport, error) {
		report.Duration = time.Since(start)
		if err != nil {
			report.Error = err.Error()
			r.logger.Warn("Reload failed, keeping previous generation",
				zap.String("marketplace", id),
				zap.Uint64("generation", report.Generation),
				zap.Error(err))
		}
		return report, err
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	if !force && prev != nil {
		stamp, err := e.source.Stat(ctx)
		if err != nil {
			return finish(fmt.Errorf("%w: %s: %w", ErrLoad, e.source.Describe(), err))
		}
		if stamp.Equal(prev.Signature.Stamp) {
			return finish(nil)
		}
	}

	table, sig, err := e.source.Read(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return finish(err)
		}
		return finish(fmt.Errorf("%w: %s: %w", ErrLoad, e.source.Describe(), err))
	}

	if !force && prev != nil && sig.Checksum == prev.Signature.Checksum {
		// Touched but identical; remember the new stamp only.
		next := *prev
		next.Signature = sig
		e.current.Store(&next)
		return finish(nil)
	}

	set, err := Load(e.profile, table)
	if set != nil {
		report.applyStats(set.Stats)
	}
	if err != nil {
		return finish(err)
	}

	idx := BuildIndex(set.records, e.profile.Policy)
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	gen := &Generation{
		Number:    prevNumber + 1,
		Records:   set,
		Index:     idx,
		Signature: sig,
		LoadedAt:  time.Now(),
	}
	e.current.Store(gen)

	report.Changed = true
	report.Generation = gen.Number
	report.RecordsAfter = set.Len()
	report.Checksum = sig.Checksum

	r.logger.Info("Published generation",
		zap.String("marketplace", id),
		zap.Uint64("generation", gen.Number),
		zap.Int("records", set.Len()),
		zap.Int("leaves", idx.Len()),
		zap.Int("dropped", set.Stats.Dropped),
		zap.Duration("duration", time.Since(start)))

	r.notify(id, gen)
	return finish(nil)
}

// ReloadAll reloads every marketplace in parallel. Failures of one
// marketplace do not stop the others; they are joined into the error.
func (r *Registry) ReloadAll(ctx context.Context, force bool) ([]*ReloadReport, error) {
	reports := make([]*ReloadReport, len(r.order))
	errs := make([]error, len(r.order))

	var g errgroup.Group
	for i, id := range r.order {
		i, id := i, id
		g.Go(func() error {
			report, err := r.Reload(ctx, id, force)
			reports[i] = report
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// Restore publishes a persisted snapshot when id has no generation yet. It
// reports whether the snapshot was used.
func (r *Registry) Restore(id string, snap Snapshot) (bool, error) {
	e, err := r.lookup(id)
	if err != nil {
		return false, err
	}
	if len(snap.Records) == 0 {
		return false, fmt.Errorf("%w: snapshot of %q has no records", ErrEmptyDataset, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current.Load() != nil {
		return false, nil
	}

	set := NewRecordSet(snap.Records)
	gen := &Generation{
		Number:    snap.Generation,
		Records:   set,
		Index:     BuildIndex(set.records, e.profile.Policy),
		Signature: snap.Signature,
		LoadedAt:  time.Now(),
		Restored:  true,
	}
	e.current.Store(gen)

	r.logger.Info("Restored generation from snapshot",
		zap.String("marketplace", id),
		zap.Uint64("generation", gen.Number),
		zap.Int("records", set.Len()),
		zap.Time("saved_at", snap.SavedAt))

	r.notify(id, gen)
	return true, nil
}
