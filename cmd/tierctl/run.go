package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"sharetier/internal/config"
	"sharetier/internal/filesvc"
	"sharetier/internal/journal"
	"sharetier/internal/migrate"
	"sharetier/internal/orchestrator"
	"sharetier/internal/score"
	"sharetier/internal/telemetry"
)

func newRunCmd(configPath, logDir *string, noLogs *bool) *cobra.Command {
	var (
		manifestPath string
		journalDSN   string
		stagingDir   string
		shareWorkers int
		tickInterval time.Duration
		retries      int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, ticking the orchestrator over every configured share",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(*logDir, *noLogs)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			tel, err := telemetry.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			store, err := journal.Open(journalDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			client := filesvc.NewLocalFS()
			exec := migrate.NewExecutor(client, stagingDir, retries, log)
			metrics := score.NewMetrics(prometheus.DefaultRegisterer)

			orch := orchestrator.New(tel, client, store, exec, metrics, log, shareWorkers, tickInterval)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			manualTrigger := make(chan struct{})
			orch.Start(ctx, func() (config.Settings, error) { return config.Load(*configPath) }, manualTrigger)

			log.Infof("tiering scheduler started, tick interval %s", tickInterval)
			<-ctx.Done()
			orch.Stop()
			log.Info("tiering scheduler stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "telemetry-manifest", "config/telemetry.json", "Path to the telemetry manifest JSON file")
	cmd.Flags().StringVar(&journalDSN, "journal-dsn", "file:journal.db", "sqlite DSN for the movement/evaluation journal")
	cmd.Flags().StringVar(&stagingDir, "staging-dir", "staging", "Local directory for in-flight copy staging")
	cmd.Flags().IntVar(&shareWorkers, "share-workers", 4, "Bounded per-share concurrency")
	cmd.Flags().DurationVar(&tickInterval, "tick-interval", 24*time.Hour, "Interval between scheduled ticks")
	cmd.Flags().IntVar(&retries, "retries", 2, "Number of copy retries on transient failure")

	return cmd
}
