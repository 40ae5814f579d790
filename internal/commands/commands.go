// Package commands holds the wallcal command line.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wallcal/internal/config"
	appLog "wallcal/internal/log"
	"wallcal/internal/source"
	"wallcal/internal/view"
)

const version = "0.1.0"

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func New() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "wallcal",
		Short:         "Calendar layouts for wall displays.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", "config.yaml", "Path to config file")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "Log level (overrides config if set)")

	addCommands(cmd, ro)
	return cmd
}

func addCommands(topLevel *cobra.Command, ro *rootOptions) {
	addServe(topLevel, ro)
	addRender(topLevel, ro)
	addLayout(topLevel, ro)
	addUpcoming(topLevel, ro)
}

// env is the wiring every command starts from.
type env struct {
	cfg    *config.Config
	store  *source.Store
	engine *view.Engine
}

func (ro *rootOptions) load(ctx context.Context) (*env, error) {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if ro.logLevel != "" {
		level = ro.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	src, err := source.FromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("commands: sources: %w", err)
	}

	appLog.Info("effective config",
		"config_path", ro.configPath,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"horizon_days", cfg.HorizonDays,
		"ics_count", len(cfg.ICS),
		"google", cfg.Google != nil,
		"font", cfg.Font.Kind,
	)

	return &env{
		cfg:    cfg,
		store:  source.NewStore(src, loc, cfg.HorizonDays),
		engine: view.NewEngine(cfg),
	}, nil
}
