// Command tierctl is the CLI surface for the tiering engine, mapping to
// spec.md §6's admin commands (preview, execute, manual_scan,
// get_settings, update_settings) plus a long-lived `run` subcommand for
// the scheduler. Restructured from
// theweak1-file-maintenance/cmd/main/main.go's flag-building -> config ->
// logger -> run pipeline into github.com/spf13/cobra subcommands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sharetier/internal/housekeeping"
	"sharetier/internal/logging"
	"sharetier/internal/utils"
)

func main() {
	root, err := utils.ExeDir()
	if err != nil {
		root, _ = os.Getwd()
	}

	var (
		configPath string
		logDir     string
		noLogs     bool
	)

	rootCmd := &cobra.Command{
		Use:   "tierctl",
		Short: "Hierarchical storage tiering engine control plane",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", filepath.Join(root, "config", "settings.json"), "Path to the settings JSON file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", filepath.Join(root, "logs"), "Log directory (defaults next to the binary)")
	rootCmd.PersistentFlags().BoolVar(&noLogs, "no-logs", false, "If set, no log files are written and log output is sent to stdout only")

	rootCmd.AddCommand(
		newRunCmd(&configPath, &logDir, &noLogs),
		newManualScanCmd(&configPath, &logDir, &noLogs),
		newPreviewCmd(&configPath, &logDir, &noLogs),
		newExecuteCmd(&configPath, &logDir, &noLogs),
		newSettingsCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLogger(logDir string, noLogs bool) (*logging.Logger, error) {
	if !noLogs {
		if err := housekeeping.RemoveOldLogs(logDir, 30); err != nil {
			fmt.Fprintf(os.Stderr, "log retention cleanup failed: %v\n", err)
		}
	}
	return logging.New(logging.LogSettings{NoLogs: noLogs, LogDir: logDir})
}
