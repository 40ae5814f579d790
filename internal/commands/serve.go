package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "wallcal/internal/log"
	"wallcal/internal/view"
	"wallcal/internal/web"
)

type serveOptions struct {
	listen string
	dump   bool
	view   string
}

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar and refresh it on the configured schedule.",
		Example: `
wallcal serve --config /etc/wallcal/config.yaml
wallcal serve --listen 127.0.0.1:9090 --dump
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := view.Parse(so.view)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			e, err := ro.load(ctx)
			if err != nil {
				return err
			}
			if so.listen != "" {
				e.cfg.Listen = so.listen
			}
			return serve(ctx, e, name, so.dump)
		},
	}
	cmd.Flags().StringVar(&so.listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&so.dump, "dump", false, "Write preview.png, black.bin, red.bin and panel.png to output_dir on every refresh")
	cmd.Flags().StringVar(&so.view, "view", "", "View written by --dump: weekly, sliding or upcoming")

	topLevel.AddCommand(cmd)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func serve(ctx context.Context, e *env, name view.Name, dump bool) error {
	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		snap, err := e.store.Refresh(rctx)
		if err != nil {
			appLog.Error("scheduled refresh failed", err)
			return
		}
		if !dump {
			return
		}
		if err := writeOutputs(e, snap, name, e.cfg.OutputDir, true); err != nil {
			appLog.Error("dump failed", err, "dir", e.cfg.OutputDir)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(e.cfg.RefreshCron, refresh); err != nil {
		return fmt.Errorf("commands: refresh schedule %q: %w", e.cfg.RefreshCron, err)
	}
	// Warm the cache so the first request does not wait on the network.
	refresh()
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	appLog.Info("wallcal serving", "version", version, "refresh", e.cfg.RefreshCron)
	srv := web.NewServer(e.cfg, e.store, e.engine)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	appLog.Info("wallcal exiting")
	return nil
}
