package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/bher20/fxratemanager/internal/metrics"
	"github.com/bher20/fxratemanager/internal/storage"
	"github.com/bher20/fxratemanager/pkg/providers"
	"github.com/bher20/fxratemanager/pkg/providers/bureaus"
)

// Config controls how the rates service behaves.
type Config struct {
	// CacheTTL is how long a collected snapshot is served before Latest
	// collects again. Zero disables caching.
	CacheTTL time.Duration
	// FetchTimeout bounds each bureau fetch.
	FetchTimeout time.Duration
	// Concurrency bounds parallel bureau fetches.
	Concurrency int
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:     5 * time.Second,
		FetchTimeout: 10 * time.Second,
		Concurrency:  4,
	}
}

// Listener is notified after every successful collection.
type Listener func(*Snapshot)

// Service collects quotes from every bureau into snapshots and caches the
// latest one.
type Service struct {
	cfg     Config
	bureaus []bureaus.Bureau
	store   storage.Storage // may be nil
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	last      *Snapshot
	lastAt    time.Time
	listeners []Listener
}

// NewService returns a Service with no persistent storage.
func NewService(cfg Config, list []bureaus.Bureau) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	return &Service{cfg: cfg, bureaus: list, now: time.Now}
}

// NewServiceWithStorage returns a Service that writes every collected
// snapshot to st and reads it back as a cache.
func NewServiceWithStorage(cfg Config, list []bureaus.Bureau, st storage.Storage) *Service {
	s := NewService(cfg, list)
	s.store = st
	return s
}

// Bureaus returns the bureaus in collection order.
func (s *Service) Bureaus() []bureaus.Bureau {
	return s.bureaus
}

// OnSnapshot registers l to be called after each successful collection.
func (s *Service) OnSnapshot(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Latest returns a snapshot no older than CacheTTL, collecting a new one
// when needed. Concurrent callers share one collection.
func (s *Service) Latest(ctx context.Context) (*Snapshot, error) {
	if snap := s.cached(ctx); snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Refresh always collects a new snapshot and stores it. Concurrent callers
// share one collection, which runs detached from any single caller: a
// caller whose ctx ends stops waiting without failing the others.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := s.group.DoChan("collect", func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.collectTimeout())
		defer cancel()

		snap, err := s.Collect(cctx)
		if err != nil {
			return nil, err
		}
		s.remember(cctx, snap)
		s.notify(snap)
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("collect rates: %w", ctx.Err())
	}
}

// collectTimeout bounds a shared collection: one FetchTimeout per round of
// Concurrency bureaus, plus a second for storage.
func (s *Service) collectTimeout() time.Duration {
	rounds := (len(s.bureaus) + s.cfg.Concurrency - 1) / s.cfg.Concurrency
	if rounds < 1 {
		rounds = 1
	}
	return time.Duration(rounds)*s.cfg.FetchTimeout + time.Second
}

// Current returns the last snapshot this process collected or loaded, if any.
func (s *Service) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Collect fetches every bureau concurrently. A failing bureau is reported
// with status error and never fails the collection; only cancellation of
// ctx does.
func (s *Service) Collect(ctx context.Context) (*Snapshot, error) {
	results := make([]SourceQuote, len(s.bureaus))
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, b := range s.bureaus {
		wg.Add(1)
		go func(i int, b bureaus.Bureau) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = s.errorQuote(b, ctx.Err())
				return
			}

			results[i] = s.fetchOne(ctx, b)
		}(i, b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect rates: %w", err)
	}

	ts := s.now().UTC()
	metrics.ObserveCollection(ts)
	return &Snapshot{
		ID:        uuid.NewString(),
		Timestamp: NewTimestamp(ts),
		Sources:   results,
	}, nil
}

func (s *Service) fetchOne(ctx context.Context, b bureaus.Bureau) SourceQuote {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	started := time.Now()
	quotes, err := b.FetchQuotes(ctx)
	if err == nil && len(quotes) == 0 {
		err = providers.ErrNoData
	}
	metrics.ObserveBureauFetch(b.Key(), started, err)
	if err != nil {
		log.Printf("rates: bureau %s failed: %v", b.Key(), err)
		return s.errorQuote(b, err)
	}

	out := make(map[Currency]QuotePair, len(quotes))
	for code, q := range quotes {
		c, ok := ParseCurrency(code)
		if !ok {
			continue
		}
		out[c] = QuotePair{Currency: c, Buy: q.Buy, Sell: q.Sell}
	}
	ts := NewTimestamp(s.now().UTC())
	return SourceQuote{
		Source:      b.Name(),
		URL:         b.LandingURL(),
		Group:       b.Group(),
		Status:      StatusSuccess,
		Rates:       out,
		LastUpdated: &ts,
	}
}

func (s *Service) errorQuote(b bureaus.Bureau, err error) SourceQuote {
	ts := NewTimestamp(s.now().UTC())
	return SourceQuote{
		Source:       b.Name(),
		URL:          b.LandingURL(),
		Group:        b.Group(),
		Status:       StatusError,
		Rates:        map[Currency]QuotePair{},
		LastUpdated:  &ts,
		ErrorMessage: err.Error(),
	}
}

// cached returns the freshest known snapshot if it is within CacheTTL.
func (s *Service) cached(ctx context.Context) *Snapshot {
	if s.cfg.CacheTTL <= 0 {
		return nil
	}

	s.mu.RLock()
	last, lastAt := s.last, s.lastAt
	s.mu.RUnlock()
	if last != nil && s.now().Sub(lastAt) < s.cfg.CacheTTL {
		return last
	}

	// Another replica may have collected more recently.
	if s.store == nil {
		return nil
	}
	row, err := s.store.GetLatestSnapshot(ctx)
	if err != nil || row == nil || len(row.Payload) == 0 {
		return nil
	}
	if s.now().Sub(row.FetchedAt) >= s.cfg.CacheTTL {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		log.Printf("rates: stored snapshot undecodable, recollecting: %v", err)
		return nil
	}
	s.mu.Lock()
	s.last, s.lastAt = &snap, row.FetchedAt
	s.mu.Unlock()
	return &snap
}

// remember keeps snap in memory and writes it back to storage, best effort.
func (s *Service) remember(ctx context.Context, snap *Snapshot) {
	at := snap.Timestamp.Time
	s.mu.Lock()
	s.last, s.lastAt = snap, at
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("rates: encode snapshot failed: %v", err)
		return
	}
	if err := s.store.SaveLatestSnapshot(ctx, storage.RatesSnapshot{
		SnapshotID: snap.ID,
		Payload:    payload,
		FetchedAt:  at,
	}); err != nil {
		log.Printf("rates: save snapshot failed: %v", err)
	}
}

func (s *Service) notify(snap *Snapshot) {
	s.mu.RLock()
	ls := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range ls {
		l(snap)
	}
}

// LoadStored primes the in-memory copy from storage, e.g. after a restart,
// regardless of its age.
func (s *Service) LoadStored(ctx context.Context) (*Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	row, err := s.store.GetLatestSnapshot(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode stored snapshot: %w", err)
	}
	s.mu.Lock()
	if s.last == nil {
		s.last, s.lastAt = &snap, row.FetchedAt
	}
	s.mu.Unlock()
	return &snap, nil
}

// StorageBureaus converts descriptors into storage rows, keeping positions.
func StorageBureaus(list []BureauDescriptor) []storage.Bureau {
	out := make([]storage.Bureau, 0, len(list))
	for i, d := range list {
		out = append(out, storage.Bureau{
			Key:      d.Key,
			Name:     d.Name,
			URL:      d.URL,
			Group:    string(d.Group),
			Kind:     d.Kind,
			Position: i,
		})
	}
	return out
}
