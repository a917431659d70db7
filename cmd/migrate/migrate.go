// Package migrate provides the migrate command that prepares the database schema.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/notekeeper/internal/app"
	"github.com/tphakala/notekeeper/internal/conf"
)

// Command creates the migrate command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database %s (%s) is up to date\n", a.Manager.Path(), a.Manager.Dialect())
			return nil
		},
	}

	return cmd
}
