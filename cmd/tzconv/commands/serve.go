package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/tzconv/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("Server configuration",
				"listen", listen,
				"cache_ttl", a.cfg.CacheTTL,
				"rate_limit", a.cfg.RateLimit,
				"strict_calendar", a.strictCalendar(),
				"has_maps_key", a.cfg.MapsAPIKey != "")

			srv := server.New(a.logger,
				server.WithZones(a.zones),
				server.WithEngine(a.engine),
				server.WithLocator(a.locator),
				server.WithCacheTTL(a.cfg.CacheTTL),
				server.WithRateLimit(a.cfg.RateLimit),
			)
			return srv.ListenAndServe(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, TZCONV_LISTEN)")
	return cmd
}
