package main

import (
	"fmt"

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

func newManualScanCmd(configPath, logDir *string, noLogs *bool) *cobra.Command {
	var (
		manifestPath string
		journalDSN   string
		stagingDir   string
	)

	cmd := &cobra.Command{
		Use:   "manual-scan",
		Short: "Trigger one orchestrator pass immediately, subject to per-share cooldown",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(*logDir, *noLogs)
			if err != nil {
				return err
			}
			defer log.Sync()

			settings, err := config.Load(*configPath)
			if err != nil {
				return err
			}
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
			exec := migrate.NewExecutor(client, stagingDir, 2, log)
			metrics := score.NewMetrics(prometheus.NewRegistry())
			orch := orchestrator.New(tel, client, store, exec, metrics, log, 4, 0)

			results, err := orch.ManualScan(cmd.Context(), settings)
			if err != nil {
				return err
			}
			for share, rec := range results {
				fmt.Printf("%s: should_scan=%v score=%.4f reason=%q\n", share, rec.ShouldScan, rec.Score, rec.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "telemetry-manifest", "config/telemetry.json", "Path to the telemetry manifest JSON file")
	cmd.Flags().StringVar(&journalDSN, "journal-dsn", "file:journal.db", "sqlite DSN for the movement/evaluation journal")
	cmd.Flags().StringVar(&stagingDir, "staging-dir", "staging", "Local directory for in-flight copy staging")
	return cmd
}
