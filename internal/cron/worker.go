package cron

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bher20/fxratemanager/internal/metrics"
	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/internal/storage"
)

const (
	// JobName identifies the refresh job in scheduled_jobs and metrics.
	JobName = "refresh_rates"
	// IntervalSetting is the storage setting that overrides the cadence at
	// runtime. Its value is integer seconds or a cron expression.
	IntervalSetting = "refresh_interval"
	// DefaultInterval is used when neither config nor storage set one.
	DefaultInterval = "60"

	lockKey int64 = 42
)

// NextRun returns when the job should next run after last. setting is
// integer seconds or a standard cron expression; anything else falls back
// to DefaultInterval.
func NextRun(setting string, last time.Time) time.Time {
	setting = strings.TrimSpace(setting)
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return last.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(last)
	}
	v, _ := strconv.Atoi(DefaultInterval)
	return last.Add(time.Duration(v) * time.Second)
}

// ValidInterval reports whether setting is integer seconds or a cron
// expression.
func ValidInterval(setting string) bool {
	setting = strings.TrimSpace(setting)
	if v, err := strconv.Atoi(setting); err == nil {
		return v > 0
	}
	_, err := cron.ParseStandard(setting)
	return err == nil
}

// Worker refreshes the latest snapshot on a cadence. With a shared
// postgres backend the advisory lock keeps replicas from collecting at the
// same time.
type Worker struct {
	svc      *rates.Service
	store    storage.Storage
	interval string
	tick     time.Duration
	now      func() time.Time
}

// NewWorker returns a worker for svc. interval is the configured cadence;
// the IntervalSetting in st takes precedence when set.
func NewWorker(svc *rates.Service, st storage.Storage, interval string) *Worker {
	if interval == "" || !ValidInterval(interval) {
		interval = DefaultInterval
	}
	return &Worker{
		svc:      svc,
		store:    st,
		interval: interval,
		tick:     time.Second,
		now:      time.Now,
	}
}

// Run executes the job immediately and then whenever it is due, until ctx
// is done. Interval changes in storage are picked up on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	setting := w.setting(ctx)
	nextRun := w.now()

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	log.Printf("cron: worker starting, interval=%q", setting)

	for {
		if !w.now().Before(nextRun) {
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				log.Printf("cron: job %s failed: %v", JobName, err)
			}
			nextRun = NextRun(setting, w.now())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if val := w.setting(ctx); val != setting {
			log.Printf("cron: interval updated from %q to %q", setting, val)
			setting = val
			nextRun = NextRun(setting, w.now())
		}
	}
}

// RunOnce refreshes the snapshot while holding the advisory lock. ran is
// false when another worker holds the lock.
func (w *Worker) RunOnce(ctx context.Context) (ran bool, err error) {
	started := w.now()

	ok, err := w.store.AcquireAdvisoryLock(ctx, lockKey)
	if err != nil {
		metrics.UpdateJobMetrics(JobName, started, err)
		return false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !ok {
		log.Printf("cron: advisory lock held by another worker, skipping run")
		return false, nil
	}

	var runErr error
	func() {
		defer func() {
			if _, err := w.store.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
				log.Printf("cron: release advisory lock failed: %v", err)
			}
		}()
		var snap *rates.Snapshot
		snap, runErr = w.svc.Refresh(ctx)
		if runErr == nil {
			failed := 0
			for _, s := range snap.Sources {
				if s.Status == rates.StatusError {
					failed++
				}
			}
			log.Printf("cron: snapshot %s collected, %d/%d bureaus failed", snap.ID, failed, len(snap.Sources))
		}
	}()

	metrics.UpdateJobMetrics(JobName, started, runErr)
	dur := w.now().Sub(started)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := w.store.UpdateScheduledJob(ctx, JobName, started, dur, runErr == nil, errMsg); err != nil {
		log.Printf("cron: update scheduled_jobs failed: %v", err)
	}
	return true, runErr
}

// setting returns the effective cadence: the storage override when it is
// valid, otherwise the configured interval.
func (w *Worker) setting(ctx context.Context) string {
	val, err := w.store.GetSetting(ctx, IntervalSetting)
	if err != nil || val == "" {
		return w.interval
	}
	if !ValidInterval(val) {
		return w.interval
	}
	return val
}
