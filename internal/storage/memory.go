package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	bureaus  map[string]Bureau
	latest   *RatesSnapshot
	settings map[string]string
	jobs     map[string]ScheduledJob
	locks    map[int64]bool
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		bureaus:  make(map[string]Bureau),
		settings: make(map[string]string),
		jobs:     make(map[string]ScheduledJob),
		locks:    make(map[int64]bool),
	}
}

// NewMemoryWithBureaus returns a MemoryStorage preloaded with the given
// bureau list. Conversion from rate descriptors is done by callers so that
// storage does not import the rates package.
func NewMemoryWithBureaus(list []Bureau) *MemoryStorage {
	m := NewMemory()
	for _, b := range list {
		m.bureaus[b.Key] = b
	}
	return m
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) ListBureaus(ctx context.Context) ([]Bureau, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Bureau, 0, len(m.bureaus))
	for _, b := range m.bureaus {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (m *MemoryStorage) UpsertBureau(ctx context.Context, b Bureau) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	m.bureaus[b.Key] = b
	return nil
}

func (m *MemoryStorage) GetLatestSnapshot(ctx context.Context) (*RatesSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, nil
	}
	cp := *m.latest
	cp.Payload = append([]byte(nil), m.latest.Payload...)
	return &cp, nil
}

func (m *MemoryStorage) SaveLatestSnapshot(ctx context.Context, snap RatesSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	snap.Key = LatestKey
	snap.Payload = append([]byte(nil), snap.Payload...)
	m.latest = &snap
	return nil
}

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// AcquireAdvisoryLock grants the lock when no other caller in this process holds it.
func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := m.locks[key]
	delete(m.locks, key)
	return held, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[name] = newScheduledJob(name, started, dur, success, errMsg)
	return nil
}

func (m *MemoryStorage) GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[name]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func newScheduledJob(name string, started time.Time, dur time.Duration, success bool, errMsg string) ScheduledJob {
	status := 0
	if success {
		status = 1
	}
	return ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
}
