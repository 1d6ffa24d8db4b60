package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/burndown-ai/burndown/pkg/config"
	"github.com/burndown-ai/burndown/pkg/logger"
	"github.com/burndown-ai/burndown/pkg/monitor"
	"github.com/burndown-ai/burndown/pkg/store"
	"github.com/burndown-ai/burndown/pkg/usageapi"
)

func newMonitorCmd() *cobra.Command {
	var (
		configPath string
		credential string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the live usage monitor loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Missing credential aborts before the loop starts.
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.New(cfg.LogEnv, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			scope, err := resolveScope(cmd.Context(), st, credential)
			if err != nil {
				return err
			}

			remote := usageapi.New(cfg.APIBaseURL, cfg.APIKey)
			mon := monitor.New(st, remote, monitor.Options{
				CredentialID:  scope,
				TokenLimit:    cfg.TokenLimit(),
				Timezone:      cfg.Timezone,
				Interval:      cfg.Monitor.Interval,
				RollupSpec:    cfg.Monitor.RollupSpec,
				MetricsListen: cfg.Monitor.MetricsListen,
			}, log, os.Stdout)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mon.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")
	cmd.Flags().StringVar(&credential, "credential", "", "credential id or name to scope the monitor")
	return cmd
}
