// Package poller keeps a rate snapshot fresh by fetching it from the backend
// on a fixed cadence. It owns the auto-refresh toggle and the held snapshot,
// and reports fetch outcomes as notifications. A failed fetch never replaces
// or clears the snapshot already held.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bher20/fxratemanager/internal/metrics"
	"github.com/bher20/fxratemanager/internal/rates"
)

// Fetcher retrieves a full snapshot. *client.Client satisfies it.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*rates.Snapshot, error)
}

// FetcherFunc is a function adapter for Fetcher.
type FetcherFunc func(ctx context.Context) (*rates.Snapshot, error)

func (f FetcherFunc) FetchSnapshot(ctx context.Context) (*rates.Snapshot, error) {
	return f(ctx)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Auto-refresh cadence (default: 1s)
	Timeout     time.Duration // Per-fetch timeout (default: 10s)
	AutoRefresh bool          // Initial toggle state
}

// DefaultConfig returns the standard cadence with auto-refresh on.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Second,
		Timeout:     10 * time.Second,
		AutoRefresh: true,
	}
}

// Poller fetches snapshots and holds the latest good one.
type Poller struct {
	cfg      Config
	fetcher  Fetcher
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	inflight int
	task     *Task
	watchers []func(State)
	seq      uint64 // bumped on every transition

	emitMu  sync.Mutex
	emitted uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Poller. notifier and logger may be nil.
func New(cfg Config, fetcher Fetcher, notifier Notifier, logger *slog.Logger) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Poller{
		cfg:      cfg,
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger,
		state:    State{AutoRefresh: cfg.AutoRefresh},
	}
}

// Watch registers fn to be called with a copy of the state after every
// transition. Watchers are called one at a time and never see an older
// state after a newer one; a state overtaken before delivery is skipped.
// fn must not call SetAutoRefresh, Refresh or Start. Register watchers
// before Start.
func (p *Poller) Watch(fn func(State)) {
	p.mu.Lock()
	p.watchers = append(p.watchers, fn)
	p.mu.Unlock()
}

// State returns a copy of the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start performs the initial loading fetch in the background and, when
// auto-refresh is on, schedules the recurring fetch.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.ctx != nil {
		p.mu.Unlock()
		return errors.New("poller: already started")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	if p.state.AutoRefresh {
		p.task = Schedule(p.ctx, p.cfg.Interval, p.tick)
	}
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.fetch(p.ctx, ModeLoading)
	}()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"auto_refresh", p.cfg.AutoRefresh,
	)
	return nil
}

// Stop cancels the recurring task and any in-flight fetch and waits for
// them to exit.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	task := p.task
	p.task = nil
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		if task != nil {
			<-task.Done()
		}
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetAutoRefresh turns the recurring fetch on or off. Turning it off
// cancels the task, including a fetch it has in flight. Turning it on
// starts a new task whose first fetch is one full interval away.
func (p *Poller) SetAutoRefresh(on bool) {
	p.mu.Lock()
	if p.state.AutoRefresh == on {
		p.mu.Unlock()
		return
	}
	p.state.AutoRefresh = on

	var old *Task
	if on {
		if p.ctx != nil && p.ctx.Err() == nil {
			p.task = Schedule(p.ctx, p.cfg.Interval, p.tick)
		}
	} else {
		old, p.task = p.task, nil
	}
	seq, st, watchers := p.transition()
	p.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	p.logger.Info("auto-refresh toggled", "enabled", on)
	p.emit(seq, watchers, st)
}

// ToggleAutoRefresh flips auto-refresh and returns the new setting.
func (p *Poller) ToggleAutoRefresh() bool {
	on := !p.State().AutoRefresh
	p.SetAutoRefresh(on)
	return on
}

// Refresh fetches a snapshot now, whatever the auto-refresh setting and
// even while another fetch is in flight. The last fetch to complete wins.
func (p *Poller) Refresh(ctx context.Context) error {
	return p.fetch(ctx, ModeManual)
}

func (p *Poller) tick(ctx context.Context) {
	mode := ModeBackground
	if p.State().Snapshot == nil {
		mode = ModeLoading
	}
	_ = p.fetch(ctx, mode)
}

// fetch runs one Idle -> Fetching -> Idle cycle.
func (p *Poller) fetch(ctx context.Context, mode Mode) error {
	p.begin()

	fctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	snap, err := p.fetcher.FetchSnapshot(fctx)
	cancel()

	// Cancelled by toggle-off or Stop: drop the result silently.
	if ctx.Err() != nil {
		p.end(nil)
		metrics.PollerFetchesTotal.WithLabelValues(string(mode), "cancelled").Inc()
		return ctx.Err()
	}

	if err == nil && snap == nil {
		err = errors.New("empty snapshot")
	}
	if err != nil {
		p.end(nil)
		metrics.PollerFetchesTotal.WithLabelValues(string(mode), "error").Inc()
		p.logger.Warn("snapshot fetch failed", "mode", mode, "err", err)
		p.notifier.Notify(Notification{
			Level:   LevelError,
			Mode:    mode,
			Message: "Failed to fetch rates: " + err.Error(),
			Err:     err,
			At:      time.Now(),
		})
		return err
	}

	p.end(snap)
	metrics.PollerFetchesTotal.WithLabelValues(string(mode), "success").Inc()
	p.logger.Debug("snapshot fetched",
		"mode", mode,
		"sources", len(snap.Sources),
		"timestamp", snap.Timestamp.Time,
	)
	if mode != ModeLoading {
		p.notifier.Notify(Notification{
			Level:   LevelSuccess,
			Mode:    mode,
			Message: "Rates updated",
			At:      time.Now(),
		})
	}
	return nil
}

func (p *Poller) begin() {
	p.mu.Lock()
	p.inflight++
	p.state.Fetching = true
	seq, st, watchers := p.transition()
	p.mu.Unlock()
	p.emit(seq, watchers, st)
}

// end leaves the Fetching state and, when snap is non-nil, replaces the
// held snapshot.
func (p *Poller) end(snap *rates.Snapshot) {
	p.mu.Lock()
	p.inflight--
	p.state.Fetching = p.inflight > 0
	if snap != nil {
		p.state.Snapshot = snap
	}
	seq, st, watchers := p.transition()
	p.mu.Unlock()
	p.emit(seq, watchers, st)
}

// transition numbers the state change just made. p.mu must be held.
func (p *Poller) transition() (uint64, State, []func(State)) {
	p.seq++
	return p.seq, p.state, p.watchers
}

// emit delivers st unless a later transition has already been delivered.
func (p *Poller) emit(seq uint64, watchers []func(State), st State) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if seq <= p.emitted {
		return
	}
	p.emitted = seq
	for _, fn := range watchers {
		fn(st)
	}
}
