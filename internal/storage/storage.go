package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for bureaus, the latest rate snapshot,
// runtime settings and scheduled job bookkeeping. Only one snapshot is
// ever kept; saving replaces the previous one.
type Storage interface {
	// Bureaus
	ListBureaus(ctx context.Context) ([]Bureau, error)
	UpsertBureau(ctx context.Context, b Bureau) error

	// Latest snapshot
	GetLatestSnapshot(ctx context.Context) (*RatesSnapshot, error)
	SaveLatestSnapshot(ctx context.Context, snap RatesSnapshot) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Scheduled jobs & locking
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error
	GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error)

	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
