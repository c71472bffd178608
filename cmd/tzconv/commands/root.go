// Package commands implements the tzconv subcommands.
package commands

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/tzconv/internal/config"
	"github.com/codeGROOVE-dev/tzconv/pkg/constants"
	"github.com/codeGROOVE-dev/tzconv/pkg/geotz"
	"github.com/codeGROOVE-dev/tzconv/pkg/googlemaps"
	"github.com/codeGROOVE-dev/tzconv/pkg/httpcache"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzconv/pkg/zoneinfo"
)

// app is the state shared by every subcommand, built once the flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	zones   *zoneinfo.Service
	engine  *tzconvert.Engine
	locator *geotz.Locator
	now     func() time.Time

	configPath string
	verbose    bool
	noColor    bool
	strict     bool
}

// Execute runs the root command against os.Args.
func Execute() error {
	return newRootCmd(os.Stdout, os.Stderr).Execute()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return (&app{now: time.Now}).rootCmd(stdout, stderr)
}

func (a *app) rootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "tzconv",
		Short:        "Convert a wall-clock date and time between IANA time zones",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "reject dates that do not exist, such as 02/30")

	root.AddCommand(
		convertCmd(a),
		validateCmd(a),
		nowCmd(a),
		citiesCmd(a),
		locateCmd(a),
		serveCmd(a),
		targetsCmd(a),
	)
	return root
}

func (a *app) setup(stderr io.Writer) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if a.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger.Debug("configuration loaded",
		"path", a.configPath,
		"default_source", cfg.DefaultSource,
		"targets", len(cfg.Targets),
		"strict_calendar", a.strictCalendar(),
		"has_maps_key", cfg.MapsAPIKey != "")

	a.zones = zoneinfo.New(a.logger)
	opts := []tzconvert.Option{tzconvert.WithZoneService(a.zones), tzconvert.WithLogger(a.logger)}
	if a.strictCalendar() {
		opts = append(opts, tzconvert.WithStrictCalendar())
	}
	a.engine = tzconvert.New(opts...)

	cached := httpcache.NewCachedClient(
		httpcache.New(constants.MapsCacheSize, cfg.CacheTTL, a.logger),
		&http.Client{Timeout: constants.MapsTimeout},
		a.logger,
		httpcache.WithStoreIf(googlemaps.Cacheable))
	maps := googlemaps.NewClient(cfg.MapsAPIKey, cached, a.logger)
	a.locator = geotz.New(maps, a.logger)
	return nil
}

// strictCalendar reports whether --strict or the config file asks for
// strict calendar dates.
func (a *app) strictCalendar() bool {
	return a.strict || a.cfg.StrictCalendar
}
