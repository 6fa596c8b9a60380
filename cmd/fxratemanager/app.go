package main

import (
	"context"
	"fmt"
	"log"

	"github.com/bher20/fxratemanager/internal/config"
	"github.com/bher20/fxratemanager/internal/migrate"
	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/internal/storage"
	"github.com/bher20/fxratemanager/pkg/providers/bureaus"
)

// backend bundles the rates service with the storage it writes to.
type backend struct {
	svc   *rates.Service
	store storage.Storage
}

func (b *backend) Close() error {
	return b.store.Close()
}

// openBackend builds the bureau list, opens storage and primes the service
// with the stored snapshot.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.DB.AutoMigrate && migrate.Supported(cfg.DB.Driver) {
		log.Printf("migrate: applying migrations driver=%s", cfg.DB.Driver)
		if err := migrate.Up(ctx, cfg.DB.Driver, cfg.DB.DSN); err != nil {
			return nil, fmt.Errorf("auto-migration: %w", err)
		}
	}

	descs := rates.Bureaus()
	hc := rates.NewHTTPClient(cfg.Rates.FetchTimeout, false)
	ref := bureaus.NewReferenceClient(hc, bureaus.WithReferenceURLs(cfg.Rates.ReferenceURL, cfg.Rates.GoldSpotURL))
	list, err := bureaus.Build(descs, bureaus.Env{HTTPClient: hc, Reference: ref})
	if err != nil {
		return nil, fmt.Errorf("build bureaus: %w", err)
	}

	st, err := storage.Open(ctx, storage.Config{
		Driver:  cfg.DB.Driver,
		DSN:     cfg.DB.DSN,
		Bureaus: rates.StorageBureaus(descs),
	})
	if err != nil {
		return nil, fmt.Errorf("open storage (driver=%s): %w", cfg.DB.Driver, err)
	}

	svc := rates.NewServiceWithStorage(rates.Config{
		CacheTTL:     cfg.Rates.CacheTTL,
		FetchTimeout: cfg.Rates.FetchTimeout,
		Concurrency:  cfg.Rates.Concurrency,
	}, list, st)
	if snap, err := svc.LoadStored(ctx); err != nil {
		log.Printf("rates: load stored snapshot failed: %v", err)
	} else if snap != nil {
		log.Printf("rates: loaded stored snapshot %s", snap.ID)
	}

	log.Printf("rates: %d bureaus configured", len(list))
	return &backend{svc: svc, store: st}, nil
}
