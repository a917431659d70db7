// Package serve provides the serve command that runs the HTTP API.
package serve

import (
	"github.com/spf13/cobra"
	"github.com/tphakala/notekeeper/internal/api"
	"github.com/tphakala/notekeeper/internal/app"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/logger"
)

// Command creates the serve command.
func Command(settings *conf.Settings, version string) *cobra.Command {
	var (
		host           string
		port           int
		skipMigrations bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notes HTTP API",
		Long:  "Open the configured database, run migrations unless --skip-migrations is set and serve the notes API until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				settings.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Server.Port = port
			}
			return run(cmd, settings, version, skipMigrations)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen address (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port)")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Serve the existing schema without migrating (run 'migrate' separately)")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, version string, skipMigrations bool) error {
	ctx := cmd.Context()

	appOpts := []app.Option{app.WithMetrics(), app.WithTelemetry(), app.WithRelease(version)}
	if skipMigrations {
		appOpts = append(appOpts, app.WithoutMigrations())
	}
	a, err := app.Open(ctx, settings, appOpts...)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []api.ServerOption{
		api.WithLogger(a.Logger.Module("api")),
		api.WithStore(a.Store),
		api.WithService(a.Service),
	}
	if a.Metrics != nil {
		opts = append(opts, api.WithMetrics(a.Metrics))
	}
	if a.Limiter != nil {
		opts = append(opts, api.WithLimiter(a.Limiter))
	}

	server, err := api.New(settings, opts...)
	if err != nil {
		return err
	}

	a.Log.Info("notekeeper starting",
		logger.String("version", version),
		logger.String("address", settings.Server.Addr()))

	return server.StartWithGracefulShutdown(ctx)
}
