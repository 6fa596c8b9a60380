package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/internal/storage"
	"github.com/bher20/fxratemanager/pkg/providers"
	"github.com/bher20/fxratemanager/pkg/providers/bureaus"
)

func staticService(t *testing.T, st storage.Storage) *rates.Service {
	t.Helper()
	list, err := bureaus.Build([]bureaus.Descriptor{
		{Key: "harem", Name: "Harem Altın", Kind: bureaus.KindStatic, Group: providers.GroupFX,
			Quotes: map[string]bureaus.Quote{"USD": {Buy: 42, Sell: 42.2}}},
	}, bureaus.Env{})
	if err != nil {
		t.Fatalf("build bureaus: %v", err)
	}
	return rates.NewServiceWithStorage(rates.Config{}, list, st)
}

func TestNextRun(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	tests := []struct {
		setting string
		want    time.Time
	}{
		{"90", base.Add(90 * time.Second)},
		{" 15 ", base.Add(15 * time.Second)},
		{"*/5 * * * *", time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC)},
		{"0", base.Add(60 * time.Second)},
		{"whenever", base.Add(60 * time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			if got := NextRun(tt.setting, base); !got.Equal(tt.want) {
				t.Errorf("NextRun(%q) = %v, want %v", tt.setting, got, tt.want)
			}
		})
	}
}

func TestValidInterval(t *testing.T) {
	for s, want := range map[string]bool{"60": true, "-1": false, "@hourly": true, "0 * * * *": true, "soon": false} {
		if got := ValidInterval(s); got != want {
			t.Errorf("ValidInterval(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestRunOnce_RecordsJob(t *testing.T) {
	st := storage.NewMemory()
	w := NewWorker(staticService(t, st), st, "")
	ctx := context.Background()

	ran, err := w.RunOnce(ctx)
	if err != nil || !ran {
		t.Fatalf("RunOnce: ran=%v err=%v", ran, err)
	}

	job, err := st.GetScheduledJob(ctx, JobName)
	if err != nil || job == nil {
		t.Fatalf("expected job row, got %v %v", job, err)
	}
	if job.LastSuccess != 1 || job.LastError != "" {
		t.Errorf("unexpected job row %+v", job)
	}
	row, err := st.GetLatestSnapshot(ctx)
	if err != nil || row == nil || len(row.Payload) == 0 {
		t.Fatalf("expected stored snapshot, got %v %v", row, err)
	}
}

func TestRunOnce_SkipsWhenLocked(t *testing.T) {
	st := storage.NewMemory()
	ctx := context.Background()
	if ok, _ := st.AcquireAdvisoryLock(ctx, lockKey); !ok {
		t.Fatalf("could not take lock")
	}

	ran, err := NewWorker(staticService(t, st), st, "").RunOnce(ctx)
	if err != nil || ran {
		t.Fatalf("expected skipped run, got ran=%v err=%v", ran, err)
	}
	if job, _ := st.GetScheduledJob(ctx, JobName); job != nil {
		t.Errorf("skipped run should not record a job: %+v", job)
	}
}

func TestSetting_StorageOverride(t *testing.T) {
	st := storage.NewMemory()
	ctx := context.Background()
	w := NewWorker(staticService(t, st), st, "120")

	if got := w.setting(ctx); got != "120" {
		t.Errorf("setting = %q, want config value", got)
	}
	st.SetSetting(ctx, IntervalSetting, "*/10 * * * *")
	if got := w.setting(ctx); got != "*/10 * * * *" {
		t.Errorf("setting = %q, want storage override", got)
	}
	st.SetSetting(ctx, IntervalSetting, "garbage")
	if got := w.setting(ctx); got != "120" {
		t.Errorf("invalid override should be ignored, got %q", got)
	}
}

func TestRun_RunsImmediatelyAndStops(t *testing.T) {
	st := storage.NewMemory()
	w := NewWorker(staticService(t, st), st, "3600")
	w.tick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job, _ := st.GetScheduledJob(context.Background(), JobName); job != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	wg.Wait()

	if job, _ := st.GetScheduledJob(context.Background(), JobName); job == nil {
		t.Fatalf("expected an immediate run")
	}
}
