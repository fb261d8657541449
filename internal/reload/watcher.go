// Package reload keeps published generations in step with their sources.
// Every marketplace gets one worker goroutine; polling, file events and
// explicit triggers all funnel into that worker's coalescing kick channel.
package reload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/commission-finder/internal/commission"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 50 * time.Millisecond

// State of a marketplace worker.
type State string

const (
	StateIdle      State = "idle"
	StateReloading State = "reloading"
)

// Reloader is the part of the registry the watcher drives.
type Reloader interface {
	Reload(ctx context.Context, id string, force bool) (*commission.ReloadReport, error)
}

// Options configures a Watcher.
type Options struct {
	// Interval between polls. Zero disables polling.
	Interval time.Duration
	// Paths maps marketplace ids to the files backing them. Only these
	// files are watched through fsnotify.
	Paths map[string]string
	// FSNotify enables file system events on the directories of Paths.
	FSNotify bool
	// Debounce is the quiet period after the last event of a file before
	// its check runs.
	Debounce time.Duration
	// OnReport sees every report of a background check.
	OnReport func(report *commission.ReloadReport, err error)
}

// Status is the externally visible state of one worker.
type Status struct {
	Marketplace string    `json:"marketplace"`
	State       State     `json:"state"`
	Generation  uint64    `json:"generation"`
	Checks      int64     `json:"checks"`
	Reloads     int64     `json:"reloads"`
	LastCheck   time.Time `json:"last_check,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastChange  time.Time `json:"last_change,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

type worker struct {
	id   string
	kick chan struct{}

	mu     sync.RWMutex
	status Status
}

func (wk *worker) snapshot() Status {
	wk.mu.RLock()
	defer wk.mu.RUnlock()
	return wk.status
}

// Watcher supervises the reloads of a fixed set of marketplaces.
type Watcher struct {
	reloader Reloader
	opts     Options
	logger   *zap.Logger

	order   []string
	workers map[string]*worker
	byPath  map[string]string

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	fw      *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewWatcher creates an idle watcher for ids. Nothing runs until Start.
func NewWatcher(reloader Reloader, ids []string, opts Options, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	w := &Watcher{
		reloader: reloader,
		opts:     opts,
		logger:   logger,
		workers:  make(map[string]*worker, len(ids)),
		byPath:   make(map[string]string),
	}
	for _, id := range ids {
		if _, dup := w.workers[id]; dup {
			continue
		}
		w.order = append(w.order, id)
		w.workers[id] = &worker{
			id:     id,
			kick:   make(chan struct{}, 1),
			status: Status{Marketplace: id, State: StateIdle},
		}
	}
	for id, p := range opts.Paths {
		if _, ok := w.workers[id]; !ok || p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		w.byPath[filepath.Clean(p)] = id
	}
	return w
}

// Start launches the workers and, when enabled, the file event loop. It
// returns once everything is running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("watcher already started")
	}

	ctx, cancel := context.WithCancel(ctx)

	if w.opts.FSNotify && len(w.byPath) > 0 {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			cancel()
			return fmt.Errorf("fsnotify: %w", err)
		}
		for _, dir := range w.directories() {
			if err := fw.Add(dir); err != nil {
				// A missing data directory degrades to polling.
				w.logger.Warn("Cannot watch data directory", zap.String("dir", dir), zap.Error(err))
			}
		}
		w.fw = fw
		w.wg.Add(1)
		go w.events(ctx, fw)
	}

	for _, id := range w.order {
		wk := w.workers[id]
		w.wg.Add(1)
		go w.run(ctx, wk)
	}

	w.started = true
	w.cancel = cancel

	w.logger.Info("Reload watcher started",
		zap.Int("marketplaces", len(w.order)),
		zap.Duration("interval", w.opts.Interval),
		zap.Bool("fsnotify", w.fw != nil))
	return nil
}

// Stop ends all workers and waits for them. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.cancel()
	fw := w.fw
	w.mu.Unlock()

	var err error
	if fw != nil {
		err = fw.Close()
	}
	w.wg.Wait()
	return err
}

// Trigger asks the worker of id to check its source. Triggers arriving while
// a check is pending are coalesced into it.
func (w *Watcher) Trigger(id string) error {
	wk, ok := w.workers[id]
	if !ok {
		return fmt.Errorf("%w: %q", commission.ErrUnknownMarketplace, id)
	}
	select {
	case wk.kick <- struct{}{}:
	default:
	}
	return nil
}

// TriggerAll kicks every worker.
func (w *Watcher) TriggerAll() {
	for _, id := range w.order {
		_ = w.Trigger(id)
	}
}

// Statuses returns the worker states in registration order.
func (w *Watcher) Statuses() []Status {
	out := make([]Status, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.workers[id].snapshot())
	}
	return out
}

// StatusOf returns the state of a single worker.
func (w *Watcher) StatusOf(id string) (Status, error) {
	wk, ok := w.workers[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", commission.ErrUnknownMarketplace, id)
	}
	return wk.snapshot(), nil
}

func (w *Watcher) run(ctx context.Context, wk *worker) {
	defer w.wg.Done()

	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-wk.kick:
			w.check(ctx, wk)
		case <-tick:
			w.check(ctx, wk)
		}
	}
}

func (w *Watcher) check(ctx context.Context, wk *worker) {
	wk.mu.Lock()
	wk.status.State = StateReloading
	wk.mu.Unlock()

	report, err := w.reloader.Reload(ctx, wk.id, false)

	now := time.Now()
	wk.mu.Lock()
	prevErr := wk.status.LastError
	wk.status.State = StateIdle
	wk.status.Checks++
	wk.status.LastCheck = now
	if report != nil {
		wk.status.Generation = report.Generation
	}
	if err != nil {
		wk.status.LastError = err.Error()
	} else {
		wk.status.LastError = ""
		wk.status.LastSuccess = now
		if report != nil && report.Changed {
			wk.status.Reloads++
			wk.status.LastChange = now
		}
	}
	wk.mu.Unlock()

	if w.opts.OnReport != nil && ctx.Err() == nil {
		w.opts.OnReport(report, err)
	}

	switch {
	case err != nil && ctx.Err() != nil:
		// shutting down
	case err != nil && err.Error() != prevErr:
		w.logger.Error("Background reload failed",
			zap.String("marketplace", wk.id),
			zap.Error(err))
	case err == nil && prevErr != "":
		w.logger.Info("Background reload recovered", zap.String("marketplace", wk.id))
	}
}

func (w *Watcher) directories() []string {
	seen := make(map[string]bool)
	var dirs []string
	for p := range w.byPath {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

func (w *Watcher) events(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()

	// One trailing timer per file: a burst of writes triggers a single check
	// once the file has been quiet for the debounce window.
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			path := filepath.Clean(event.Name)
			id, ok := w.byPath[path]
			if !ok {
				continue
			}

			if t, seen := timers[path]; seen {
				t.Reset(w.opts.Debounce)
				continue
			}
			timers[path] = time.AfterFunc(w.opts.Debounce, func() {
				_ = w.Trigger(id)
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

// MissingFiles returns the ids whose path is not a regular file, sorted.
func MissingFiles(paths map[string]string) (missing []string) {
	for id, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
