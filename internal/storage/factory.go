package storage

import (
	"context"
	"fmt"
	"log"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver string
	DSN    string
	// Bureaus, when set, are upserted once the backend is ready.
	Bureaus []Bureau
}

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}

	var st Storage
	switch drv {
	case "memory":
		log.Printf("storage: using in-memory backend")
		return NewMemoryWithBureaus(cfg.Bureaus), nil

	case "sqlite", "postgres":
		log.Printf("storage: using gorm driver=%s", drv)
		gs, err := NewGormStorage(drv, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := gs.Migrate(ctx); err != nil {
			gs.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		st = gs

	case "postgrespool":
		log.Printf("storage: using pgxpool backend")
		ps, err := OpenPostgresPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := ps.Migrate(ctx); err != nil {
			ps.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		st = ps

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}

	for _, b := range cfg.Bureaus {
		if err := st.UpsertBureau(ctx, b); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage seed bureau %s: %w", b.Key, err)
		}
	}
	return st, nil
}
