package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openSQLite(t *testing.T) Storage {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "fxratemanager.db")
	st, err := Open(context.Background(), Config{
		Driver:  "sqlite",
		DSN:     dsn,
		Bureaus: []Bureau{{Key: "london", Name: "London", Group: "gold-ounce", Kind: "gold-spot", Position: 5}},
	})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestGormStorage_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openSQLite(t)

	if err := st.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	list, err := st.ListBureaus(ctx)
	if err != nil {
		t.Fatalf("ListBureaus failed: %v", err)
	}
	if len(list) != 1 || list[0].Group != "gold-ounce" {
		t.Fatalf("expected seeded bureau, got %+v", list)
	}

	if snap, err := st.GetLatestSnapshot(ctx); err != nil || snap != nil {
		t.Fatalf("expected no snapshot yet, got %+v err=%v", snap, err)
	}

	for _, id := range []string{"one", "two"} {
		if err := st.SaveLatestSnapshot(ctx, RatesSnapshot{SnapshotID: id, Payload: []byte(id), FetchedAt: time.Now()}); err != nil {
			t.Fatalf("SaveLatestSnapshot(%s) failed: %v", id, err)
		}
	}
	snap, err := st.GetLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if snap == nil || snap.SnapshotID != "two" || string(snap.Payload) != "two" {
		t.Fatalf("expected the second snapshot to replace the first, got %+v", snap)
	}

	if v, err := st.GetSetting(ctx, "missing"); err != nil || v != "" {
		t.Fatalf("GetSetting(missing) = %q err=%v", v, err)
	}
	if err := st.SetSetting(ctx, "refresh_interval", "*/5 * * * *"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := st.SetSetting(ctx, "refresh_interval", "45"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	if v, _ := st.GetSetting(ctx, "refresh_interval"); v != "45" {
		t.Fatalf("GetSetting = %q, want 45", v)
	}

	if ok, err := st.AcquireAdvisoryLock(ctx, 42); err != nil || !ok {
		t.Fatalf("AcquireAdvisoryLock: ok=%v err=%v", ok, err)
	}
	if err := st.UpdateScheduledJob(ctx, "refresh_rates", time.Now(), time.Second, true, ""); err != nil {
		t.Fatalf("UpdateScheduledJob failed: %v", err)
	}
	if err := st.UpdateScheduledJob(ctx, "refresh_rates", time.Now(), 2*time.Second, true, ""); err != nil {
		t.Fatalf("UpdateScheduledJob upsert failed: %v", err)
	}
	job, err := st.GetScheduledJob(ctx, "refresh_rates")
	if err != nil || job == nil {
		t.Fatalf("GetScheduledJob: %+v err=%v", job, err)
	}
	if job.LastDurationMs != 2000 || job.LastSuccess != 1 {
		t.Errorf("unexpected job row: %+v", job)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
