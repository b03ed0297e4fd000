package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bloodledger/internal/platform/httpserver"
)

const shutdownTimeout = 10 * time.Second

// OpsOptions holds flags for the ops command.
type OpsOptions struct {
	*RootOptions
	Addr            string
	RefreshInterval time.Duration
}

// NewOpsCommand creates the ops command.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OpsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ops",
		Short: "Serve health and metrics for the configured ledger",
		Long: `Serve /livez, /healthz and /metrics for the configured backends until
interrupted. The committed donation counts are re-read periodically so the
gauges reflect calls made by other hosts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOps(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (defaults to OPS_ADDR)")
	cmd.Flags().DurationVar(&opts.RefreshInterval, "refresh-interval", 15*time.Second, "how often to re-read donation stats")

	return cmd
}

func runOps(cmd *cobra.Command, opts *OpsOptions) error {
	cfg, log, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	addr := opts.Addr
	if addr == "" {
		addr = cfg.OpsAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := openHost(ctx, cfg, log)
	if err != nil {
		return commandError("open ledger host", err)
	}
	defer h.Close()

	h.checks["ledger"] = func(ctx context.Context) error {
		_, err := h.registry.ViewStats(ctx)
		return err
	}
	srv := httpserver.New(addr, httpserver.NewOpsRouter(h.gatherer, h.checks))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "ops server listening", "addr", addr, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		h.refreshStats(gctx, opts.RefreshInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return commandError("ops server", err)
	}
	log.Info("ops server stopped")
	return nil
}

// refreshStats mirrors the committed aggregate into the gauges until ctx ends.
func (h *host) refreshStats(ctx context.Context, interval time.Duration) {
	refresh := func() {
		stats, err := h.registry.ViewStats(ctx)
		if err != nil {
			if ctx.Err() == nil {
				h.logger.WarnContext(ctx, "failed to refresh donation stats", "error", err)
			}
			return
		}
		h.metrics.SetStats(stats)
	}

	refresh()
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
