package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bher20/fxratemanager/internal/rates"
)

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recorder) count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.Level == level {
			n++
		}
	}
	return n
}

func snapshotAt(id string, ts time.Time) *rates.Snapshot {
	return &rates.Snapshot{
		ID:        id,
		Timestamp: rates.NewTimestamp(ts),
		Sources: []rates.SourceQuote{{
			Source: "Harem Altın",
			Status: rates.StatusSuccess,
			Rates:  map[rates.Currency]rates.QuotePair{rates.USD: {Buy: 42, Sell: 42.2}},
		}},
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestPoller_FailurePreservesSnapshot(t *testing.T) {
	ts := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
	var calls atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		if calls.Add(1) == 1 {
			return snapshotAt("first", ts), nil
		}
		return nil, errors.New("connection refused")
	})

	rec := &recorder{}
	p := New(Config{AutoRefresh: false}, fetcher, rec, nil)
	ctx := context.Background()

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	before := p.State()
	if before.Snapshot == nil || before.Snapshot.ID != "first" {
		t.Fatalf("expected first snapshot, got %+v", before.Snapshot)
	}
	if rec.count(LevelSuccess) != 1 {
		t.Fatalf("manual success should notify once, got %d", rec.count(LevelSuccess))
	}

	if err := p.Refresh(ctx); err == nil {
		t.Fatalf("expected second refresh to fail")
	}
	after := p.State()
	if after.Snapshot != before.Snapshot {
		t.Errorf("failed fetch replaced the held snapshot")
	}
	lu, ok := after.LastUpdated()
	if !ok || !lu.Equal(ts) {
		t.Errorf("LastUpdated = %v (%v), want %v", lu, ok, ts)
	}
	if got := rec.count(LevelError); got != 1 {
		t.Errorf("expected exactly one error notification, got %d", got)
	}
	if after.Fetching {
		t.Errorf("poller should be idle after a failed fetch")
	}
}

func TestPoller_LoadingFetchDoesNotNotifySuccess(t *testing.T) {
	ts := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		return snapshotAt("boot", ts), nil
	})
	rec := &recorder{}
	p := New(Config{AutoRefresh: false}, fetcher, rec, nil)

	var sawLoading atomic.Bool
	p.Watch(func(s State) {
		if s.Loading() {
			sawLoading.Store(true)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(ctx)

	waitFor(t, 2*time.Second, func() bool { return p.State().Snapshot != nil })
	if !sawLoading.Load() {
		t.Errorf("expected a loading state before the first snapshot")
	}
	if got := rec.count(LevelSuccess); got != 0 {
		t.Errorf("loading fetch should not emit a success notification, got %d", got)
	}
}

func TestPoller_LoadingFailure(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		return nil, errors.New("server error")
	})
	rec := &recorder{}
	p := New(Config{AutoRefresh: false}, fetcher, rec, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return rec.count(LevelError) == 1 })
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	st := p.State()
	if st.Snapshot != nil || st.Fetching || st.Loading() {
		t.Errorf("unexpected state after failed load: %+v", st)
	}
}

func TestPoller_AutoRefreshToggle(t *testing.T) {
	const interval = 20 * time.Millisecond
	ts := time.Now().UTC()
	var calls atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		calls.Add(1)
		return snapshotAt("tick", ts), nil
	})

	p := New(Config{Interval: interval, AutoRefresh: true}, fetcher, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(ctx)

	// Loading fetch plus at least two background ticks.
	waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 3 })

	p.SetAutoRefresh(false)
	if p.State().AutoRefresh {
		t.Fatalf("auto-refresh still reported on")
	}
	time.Sleep(interval)
	settled := calls.Load()
	time.Sleep(6 * interval)
	if got := calls.Load(); got != settled {
		t.Fatalf("fetches continued after disabling: %d -> %d", settled, got)
	}

	p.SetAutoRefresh(true)
	waitFor(t, 2*time.Second, func() bool { return calls.Load() > settled })
}

func TestPoller_ManualRefreshWhileAutoRefreshOff(t *testing.T) {
	var calls atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		calls.Add(1)
		return snapshotAt("m", time.Now()), nil
	})
	p := New(Config{Interval: time.Hour, AutoRefresh: false}, fetcher, nil, nil)

	for i := 0; i < 3; i++ {
		if err := p.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 fetches, got %d", got)
	}
	if !p.State().CanRefresh() {
		t.Errorf("idle poller should allow refresh")
	}
}

func TestPoller_FetchingFlag(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		close(started)
		<-release
		return snapshotAt("slow", time.Now()), nil
	})
	p := New(Config{AutoRefresh: false}, fetcher, nil, nil)

	errc := make(chan error, 1)
	go func() { errc <- p.Refresh(context.Background()) }()

	<-started
	if st := p.State(); !st.Fetching || st.CanRefresh() {
		t.Errorf("expected fetching state, got %+v", st)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if p.State().Fetching {
		t.Errorf("expected idle after fetch")
	}
}

func TestPoller_WatchersEndOnLatestState(t *testing.T) {
	var n atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		i := n.Add(1)
		time.Sleep(time.Duration(i%3) * time.Millisecond)
		return snapshotAt("s", time.Now()), nil
	})
	p := New(Config{AutoRefresh: false}, fetcher, nil, nil)

	var mu sync.Mutex
	var last State
	var seen int
	p.Watch(func(st State) {
		mu.Lock()
		last = st
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Refresh(context.Background())
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if seen == 0 {
		t.Fatal("watcher never called")
	}
	final := p.State()
	if last.Fetching || last.Snapshot != final.Snapshot {
		t.Errorf("watcher ended on stale state %+v, want %+v", last, final)
	}
}

func TestPoller_CancelledFetchIsSilent(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context) (*rates.Snapshot, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	rec := &recorder{}
	p := New(Config{AutoRefresh: false}, fetcher, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := rec.count(LevelError) + rec.count(LevelSuccess); n != 0 {
		t.Errorf("cancelled fetch should not notify, got %d notifications", n)
	}
}

func TestSchedule_CancelStopsTask(t *testing.T) {
	var n atomic.Int32
	task := Schedule(context.Background(), 5*time.Millisecond, func(context.Context) { n.Add(1) })

	waitFor(t, time.Second, func() bool { return n.Load() >= 2 })
	task.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("task did not exit: %v", err)
	}
	stopped := n.Load()
	time.Sleep(20 * time.Millisecond)
	if n.Load() != stopped {
		t.Errorf("task ran after Wait returned")
	}
}
