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

func newPreviewCmd(configPath, logDir *string, noLogs *bool) *cobra.Command {
	var (
		manifestPath string
		journalDSN   string
		share        string
		extensions   string
		blacklist    string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compute archive/restore candidates for a share without executing (spec admin preview)",
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
			exec := migrate.NewExecutor(client, "staging", 2, log)
			orch := orchestrator.New(tel, client, store, exec, nil, log, 1, 0)

			filters := types.AdminFilters{}
			if extensions != "" {
				filters.Extensions = strings.Split(extensions, ",")
			}
			bl := append([]string(nil), settings.Blacklist...)
			if blacklist != "" {
				bl = append(bl, strings.Split(blacklist, ",")...)
			}

			result, err := orch.Preview(cmd.Context(), share, settings, filters, bl)
			if err != nil {
				return err
			}

			fmt.Printf("status=%s archive_candidates=%d restore_candidates=%d stay_in_archive=%d\n",
				result.Status, len(result.Plan.ArchiveCandidates), len(result.Plan.RestoreCandidates), len(result.Plan.StayInArchive))
			for _, f := range result.Plan.ArchiveCandidates {
				fmt.Printf("  archive: %s (%d bytes)\n", f.Path, f.Size)
			}
			for _, rc := range result.Plan.RestoreCandidates {
				fmt.Printf("  restore: %s -> %s\n", rc.Archived.Path, rc.OriginalPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "telemetry-manifest", "config/telemetry.json", "Path to the telemetry manifest JSON file")
	cmd.Flags().StringVar(&journalDSN, "journal-dsn", "file:journal.db", "sqlite DSN for the movement/evaluation journal")
	cmd.Flags().StringVar(&share, "share", "", "UNC path of the share to preview")
	cmd.Flags().StringVar(&extensions, "extensions", "", "Comma-separated list of file extensions to match")
	cmd.Flags().StringVar(&blacklist, "blacklist", "", "Comma-separated blacklist tokens, additional to settings.json")
	cmd.MarkFlagRequired("share")
	return cmd
}
