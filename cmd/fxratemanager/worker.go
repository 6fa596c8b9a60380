package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/fxratemanager/internal/cron"
	"github.com/bher20/fxratemanager/internal/publish"
)

func newWorkerCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Refresh the stored snapshot on a schedule",
		Long: "Runs the refresh job without the HTTP server. With a shared postgres\n" +
			"backend, several workers may run; an advisory lock lets one collect at a time.",
		Args: cobra.NoArgs,
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

			w := cron.NewWorker(b.svc, b.store, cfg.Cron.Interval)
			if once {
				_, err := w.RunOnce(ctx)
				// Publishing is asynchronous; give it a moment before Close.
				time.Sleep(500 * time.Millisecond)
				return err
			}
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run the job once and exit")
	return cmd
}
