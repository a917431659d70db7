// Package cmd assembles the notekeeper command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/notekeeper/cmd/audit"
	"github.com/tphakala/notekeeper/cmd/migrate"
	"github.com/tphakala/notekeeper/cmd/serve"
	"github.com/tphakala/notekeeper/internal/conf"
)

// RootCommand creates and returns the root command. Settings are loaded into
// settings before any subcommand runs, so subcommands may hold the pointer.
func RootCommand(settings *conf.Settings, version string) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "notekeeper",
		Short:         "Notes service with role based access and an audit trail",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/notekeeper, /etc/notekeeper)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// flags take precedence over the config file and environment
		if err := viper.BindPFlag("debug", cmd.Flags().Lookup("debug")); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded
		return nil
	}

	rootCmd.AddCommand(
		serve.Command(settings, version),
		migrate.Command(settings),
		audit.Command(settings),
	)

	return rootCmd
}
