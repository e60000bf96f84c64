package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sharetier/internal/config"
	"sharetier/internal/filesvc"
	"sharetier/internal/journal"
	"sharetier/internal/migrate"
	"sharetier/internal/orchestrator"
	"sharetier/internal/telemetry"
	"sharetier/internal/types"
)

func newExecuteCmd(configPath, logDir *string, noLogs *bool) *cobra.Command {
	var (
		manifestPath string
		journalDSN   string
		stagingDir   string
		share        string
		extensions   string
		blacklist    string
	)

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run the plan for a share: archive and restore candidates (spec admin execute)",
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
			orch := orchestrator.New(tel, client, store, exec, nil, log, 1, 0)

			filters := types.AdminFilters{}
			if extensions != "" {
				filters.Extensions = strings.Split(extensions, ",")
			}
			bl := append([]string(nil), settings.Blacklist...)
			if blacklist != "" {
				bl = append(bl, strings.Split(blacklist, ",")...)
			}

			result, err := orch.Execute(cmd.Context(), share, settings, filters, bl)
			if err != nil {
				return err
			}

			fmt.Printf("status=%s archived=%d restored=%d failures=%d\n",
				result.Status, len(result.ArchiveResult.Successes), len(result.RestoreResult.Successes),
				len(result.ArchiveResult.Failures)+len(result.RestoreResult.Failures))
			for _, f := range result.ArchiveResult.Failures {
				fmt.Printf("  archive failed: %s (%s): %s\n", f.Path, f.Reason, f.Err)
			}
			for _, f := range result.RestoreResult.Failures {
				fmt.Printf("  restore failed: %s (%s): %s\n", f.Path, f.Reason, f.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "telemetry-manifest", "config/telemetry.json", "Path to the telemetry manifest JSON file")
	cmd.Flags().StringVar(&journalDSN, "journal-dsn", "file:journal.db", "sqlite DSN for the movement/evaluation journal")
	cmd.Flags().StringVar(&stagingDir, "staging-dir", "staging", "Local directory for in-flight copy staging")
	cmd.Flags().StringVar(&share, "share", "", "UNC path of the share to execute against")
	cmd.Flags().StringVar(&extensions, "extensions", "", "Comma-separated list of file extensions to match")
	cmd.Flags().StringVar(&blacklist, "blacklist", "", "Comma-separated blacklist tokens, additional to settings.json")
	cmd.MarkFlagRequired("share")
	return cmd
}
