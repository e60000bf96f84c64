package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sharetier/internal/config"
)

func newSettingsCmd(configPath *string) *cobra.Command {
	parent := &cobra.Command{
		Use:   "settings",
		Short: "Read or update the tiering engine's settings file (spec admin get_settings/update_settings)",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current settings file as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		},
	}

	var mode string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update the active mode in the settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if _, ok := settings.Modes[mode]; !ok {
				return fmt.Errorf("mode %q has no entry under \"modes\" in %s", mode, *configPath)
			}
			settings.Mode = mode
			if err := config.Save(*configPath, settings); err != nil {
				return err
			}
			fmt.Printf("active mode set to %q\n", mode)
			return nil
		},
	}
	setCmd.Flags().StringVar(&mode, "mode", "", "New active mode (must already exist under \"modes\")")
	setCmd.MarkFlagRequired("mode")

	parent.AddCommand(getCmd, setCmd)
	return parent
}
