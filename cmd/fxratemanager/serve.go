package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/fxratemanager/internal/api"
	"github.com/bher20/fxratemanager/internal/compare"
	"github.com/bher20/fxratemanager/internal/cron"
	"github.com/bher20/fxratemanager/internal/publish"
)

func newServeCmd() *cobra.Command {
	var noWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rates API and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			pub, err := publish.New(cfg.Publisher)
			if err != nil {
				return err
			}
			defer pub.Close()
			b.svc.OnSnapshot(publish.Listener(pub, 10*time.Second))

			hub := api.NewHub(b.svc.Current, cfg.CORSOrigins)
			defer hub.Close()
			b.svc.OnSnapshot(hub.Broadcast)

			if !noWorker {
				w := cron.NewWorker(b.svc, b.store, cfg.Cron.Interval)
				go func() {
					if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Printf("cron: worker stopped: %v", err)
					}
				}()
			}

			srv := &http.Server{
				Addr: cfg.Addr(),
				Handler: api.NewHandler(api.Deps{
					Service:     b.svc,
					Store:       b.store,
					Comparator:  compare.New(compare.WithMatcher(compare.MatcherFor(cfg.Poller.Epsilon))),
					Hub:         hub,
					CORSOrigins: cfg.CORSOrigins,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Printf("fxratemanager listening on %s", srv.Addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Printf("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not run the background refresh worker in-process")
	return cmd
}
