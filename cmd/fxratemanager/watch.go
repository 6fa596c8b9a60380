package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/fxratemanager/internal/client"
	"github.com/bher20/fxratemanager/internal/compare"
	"github.com/bher20/fxratemanager/internal/poller"
)

func newWatchCmd() *cobra.Command {
	var (
		once    bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend and show a live comparison table",
		Long: "Polls FXRATEMANAGER_BACKEND_URL and redraws the comparison table on every change.\n" +
			"Keys (followed by Enter): a toggles auto-refresh, r refreshes now, q quits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			opts := []client.ClientOption{
				client.WithTimeout(cfg.Rates.FetchTimeout),
				client.WithLogger(logger),
			}
			if once {
				// No polling cadence to fall back on.
				opts = append(opts, client.WithRetries(2, 250*time.Millisecond))
			}
			cl := client.NewClient(cfg.BackendURL, opts...)
			cmp := compare.New(compare.WithMatcher(compare.MatcherFor(cfg.Poller.Epsilon)))
			out := cmd.OutOrStdout()

			if once {
				snap, err := cl.FetchSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				return compare.Render(out, cmp.Compare(*snap))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sc := &screen{w: out, cmp: cmp}
			p := poller.New(poller.Config{
				Interval:    cfg.Poller.Interval,
				Timeout:     cfg.Rates.FetchTimeout,
				AutoRefresh: cfg.Poller.AutoRefresh,
			}, cl, poller.NotifierFunc(sc.notify), logger)
			p.Watch(sc.draw)

			if err := p.Start(ctx); err != nil {
				return err
			}
			go readKeys(ctx, cmd.InOrStdin(), p, stop)

			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return p.Stop(stopCtx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "fetch one snapshot, print it and exit")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every fetch")
	return cmd
}

// screen redraws the terminal from poller state.
type screen struct {
	w   io.Writer
	cmp *compare.Comparator

	mu   sync.Mutex
	last poller.State
	note string
}

func (s *screen) draw(st poller.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = st
	s.redrawLocked()
}

func (s *screen) notify(n poller.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch n.Level {
	case poller.LevelError:
		s.note = fmt.Sprintf("[%s] error: %s", n.At.Format("15:04:05"), n.Message)
	default:
		s.note = fmt.Sprintf("[%s] %s", n.At.Format("15:04:05"), n.Message)
	}
	s.redrawLocked()
}

func (s *screen) redrawLocked() {
	fmt.Fprint(s.w, "\033[H\033[2J")

	st := s.last
	auto := "off"
	if st.AutoRefresh {
		auto = "on"
	}
	status := "idle"
	if st.Fetching {
		status = "fetching"
	}
	updated := "never"
	if t, ok := st.LastUpdated(); ok {
		updated = t.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(s.w, "auto-refresh: %s | %s | last updated: %s\n\n", auto, status, updated)

	switch {
	case st.Loading():
		fmt.Fprintln(s.w, "Loading rates...")
	case st.Snapshot == nil:
		fmt.Fprintln(s.w, "No data.")
	default:
		_ = compare.Render(s.w, s.cmp.Compare(*st.Snapshot))
	}

	if s.note != "" {
		fmt.Fprintf(s.w, "\n%s\n", s.note)
	}
	fmt.Fprintln(s.w, "\n[a] auto-refresh  [r] refresh  [q] quit")
}

func readKeys(ctx context.Context, in io.Reader, p *poller.Poller, quit func()) {
	r := bufio.NewScanner(in)
	for r.Scan() {
		switch strings.ToLower(strings.TrimSpace(r.Text())) {
		case "a":
			p.ToggleAutoRefresh()
		case "r":
			if p.State().CanRefresh() {
				go func() { _ = p.Refresh(ctx) }()
			}
		case "q":
			quit()
			return
		}
	}
	// stdin closed: keep polling until a signal arrives.
}
