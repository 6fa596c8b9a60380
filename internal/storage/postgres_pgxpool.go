package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bher20/fxratemanager/internal/metrics"
)

// PostgresPoolStorage talks to Postgres through a pgx connection pool.
// Advisory locks are session scoped, so each held lock pins the pooled
// connection it was taken on until it is released.
type PostgresPoolStorage struct {
	pool *pgxpool.Pool

	mu    sync.Mutex
	locks map[int64]*pgxpool.Conn
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/fxratemanager?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool, locks: make(map[int64]*pgxpool.Conn)}, nil
}

func (s *PostgresPoolStorage) Close() error {
	s.mu.Lock()
	for key, conn := range s.locks {
		conn.Release()
		delete(s.locks, key)
	}
	s.mu.Unlock()
	s.pool.Close()
	return nil
}

// Ping checks connectivity and publishes pool statistics.
func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	st := s.pool.Stat()
	metrics.UpdateDBPoolMetrics("postgrespool",
		float64(st.TotalConns()), float64(st.IdleConns()), float64(st.AcquiredConns()), st.AcquireCount())
	return s.pool.Ping(ctx)
}

func (s *PostgresPoolStorage) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bureaus (
            key TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            url TEXT NOT NULL DEFAULT '',
            group_name TEXT NOT NULL DEFAULT '',
            kind TEXT NOT NULL DEFAULT '',
            position INTEGER NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS rates_snapshots (
            key TEXT PRIMARY KEY,
            snapshot_id TEXT NOT NULL DEFAULT '',
            payload BYTEA NOT NULL,
            fetched_at TIMESTAMPTZ NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS scheduled_jobs (
            name TEXT PRIMARY KEY,
            last_run_at TIMESTAMPTZ,
            last_duration_ms BIGINT NOT NULL DEFAULT 0,
            last_success INTEGER NOT NULL DEFAULT 0,
            last_error TEXT NOT NULL DEFAULT ''
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresPoolStorage) ListBureaus(ctx context.Context) ([]Bureau, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, name, url, group_name, kind, position, updated_at FROM bureaus ORDER BY position, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bureau
	for rows.Next() {
		var b Bureau
		if err := rows.Scan(&b.Key, &b.Name, &b.URL, &b.Group, &b.Kind, &b.Position, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) UpsertBureau(ctx context.Context, b Bureau) error {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO bureaus (key, name, url, group_name, kind, position, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (key) DO UPDATE SET
            name=EXCLUDED.name,
            url=EXCLUDED.url,
            group_name=EXCLUDED.group_name,
            kind=EXCLUDED.kind,
            position=EXCLUDED.position,
            updated_at=EXCLUDED.updated_at
    `, b.Key, b.Name, b.URL, b.Group, b.Kind, b.Position, b.UpdatedAt)
	return err
}

func (s *PostgresPoolStorage) GetLatestSnapshot(ctx context.Context) (*RatesSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT snapshot_id, payload, fetched_at
        FROM rates_snapshots
        WHERE key=$1
    `, LatestKey)

	snap := RatesSnapshot{Key: LatestKey}
	if err := row.Scan(&snap.SnapshotID, &snap.Payload, &snap.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresPoolStorage) SaveLatestSnapshot(ctx context.Context, snap RatesSnapshot) error {
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO rates_snapshots (key, snapshot_id, payload, fetched_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (key) DO UPDATE SET
            snapshot_id=EXCLUDED.snapshot_id,
            payload=EXCLUDED.payload,
            fetched_at=EXCLUDED.fetched_at
    `, LatestKey, snap.SnapshotID, snap.Payload, snap.FetchedAt)
	return err
}

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO settings (key, value, updated_at)
        VALUES ($1,$2,now())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
    `, key, value)
	return err
}

func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locks[key]; held {
		return false, nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Release()
		return false, err
	}
	if !ok {
		conn.Release()
		return false, nil
	}
	s.locks[key] = conn
	return true, nil
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	s.mu.Lock()
	conn, held := s.locks[key]
	delete(s.locks, key)
	s.mu.Unlock()
	if !held {
		return false, nil
	}
	defer conn.Release()

	var ok bool
	err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	job := newScheduledJob(name, started, dur, success, errMsg)
	_, err := s.pool.Exec(ctx, `
        INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (name) DO UPDATE SET
            last_run_at=EXCLUDED.last_run_at,
            last_duration_ms=EXCLUDED.last_duration_ms,
            last_success=EXCLUDED.last_success,
            last_error=EXCLUDED.last_error
    `, job.Name, job.LastRunAt, job.LastDurationMs, job.LastSuccess, job.LastError)
	return err
}

func (s *PostgresPoolStorage) GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error) {
	var j ScheduledJob
	err := s.pool.QueryRow(ctx, `
        SELECT name, last_run_at, last_duration_ms, last_success, last_error
        FROM scheduled_jobs WHERE name=$1
    `, name).Scan(&j.Name, &j.LastRunAt, &j.LastDurationMs, &j.LastSuccess, &j.LastError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}
