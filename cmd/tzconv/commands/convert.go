package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/tzconv/internal/config"
	"github.com/codeGROOVE-dev/tzconv/pkg/cities"
	"github.com/codeGROOVE-dev/tzconv/pkg/display"
	"github.com/codeGROOVE-dev/tzconv/pkg/planner"
	"github.com/codeGROOVE-dev/tzconv/pkg/timeline"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
)

var (
	errNoSource  = errors.New("no source zone: pass --from or --from-city, or set default_source in the config")
	errNoTargets = errors.New("no targets: pass --to or --to-city, or set targets in the config")
)

func convertCmd(a *app) *cobra.Command {
	var (
		from, fromCity string
		to, toCities   []string
		asJSON         bool
		showTimeline   bool
		save           bool
	)

	cmd := &cobra.Command{
		Use:   "convert <MM/DD/YYYY H:MM AM|PM>",
		Short: "Convert a date and time from one zone to others",
		Long: `Convert reads a wall-clock date and time in the source zone and shows
the same moment in each target zone.

Examples:
  # New York evening in Dubai and Tokyo
  tzconv convert "02/02/2026 10:00 PM" --from America/New_York --to Asia/Dubai --to Asia/Tokyo

  # Loosely typed input is normalized
  tzconv convert 020220261000p --from-city "New York" --to-city Dubai

  # Remember the zones for next time
  tzconv convert "02/02/2026 10:00 PM" --from America/New_York --to Asia/Dubai --save
  tzconv convert "02/03/2026 9:00 AM"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readDateTime(args)
			if err != nil {
				return err
			}

			source, err := a.resolveSource(from, fromCity)
			if err != nil {
				return err
			}

			// Converting the source onto itself surfaces calendar errors
			// (strict mode) before any target is tried.
			if _, err := a.engine.ConvertDateTime(value, source.Timezone, source.Timezone); err != nil {
				return err
			}

			plan := &planner.Plan{}
			plan.SetSource(source)
			plan.SetDateTime(value)

			if len(to) == 0 && len(toCities) == 0 {
				to = a.cfg.Targets
			}
			for _, zone := range to {
				plan.AddTarget(planner.Location{Name: zone, Timezone: zone})
			}
			for _, label := range toCities {
				c, ok := cities.Lookup(label)
				if !ok {
					return fmt.Errorf("unknown city %q", label)
				}
				plan.AddTarget(planner.FromCity(c, c.Timezone))
			}
			if !plan.Ready() {
				return errNoTargets
			}
			if save {
				if err := a.saveDefaults(plan); err != nil {
					return err
				}
			}

			rows := plan.Rows(a.engine)
			a.warnPending(plan, rows)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			display.Header(out, source.Name, plan.SourceLabel())
			display.Rows(out, plan, rows)
			if showTimeline {
				return a.printTimeline(out, plan)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "source IANA zone (default from config)")
	cmd.Flags().StringVar(&fromCity, "from-city", "", `source city, e.g. "Tokyo" or "Tokyo, Japan"`)
	cmd.Flags().StringSliceVarP(&to, "to", "t", nil, "target IANA zone (repeatable)")
	cmd.Flags().StringSliceVar(&toCities, "to-city", nil, "target city (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&showTimeline, "timeline", false, "also chart the 24 hours of the source day in every zone")
	cmd.Flags().BoolVar(&save, "save", false, "store the source and targets as config defaults")
	cmd.MarkFlagsMutuallyExclusive("from", "from-city")
	return cmd
}

// readDateTime joins args so an unquoted "02/02/2026 10:00 PM" works, and
// accepts digit-only entry such as "020220261000p".
func readDateTime(args []string) (string, error) {
	value := strings.Join(args, " ")
	if tzconvert.IsValidDateTime(value) {
		return value, nil
	}
	if normalized, ok := tzconvert.Suggest(value); ok {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q (want MM/DD/YYYY H:MM AM|PM)", tzconvert.ErrMalformedInput, value)
}

// saveDefaults writes the plan's source and target zones to the config file.
func (a *app) saveDefaults(plan *planner.Plan) error {
	cfg := *a.cfg
	cfg.DefaultSource = plan.Source.Timezone
	cfg.Targets = make([]string, 0, len(plan.Targets))
	for _, t := range plan.Targets {
		if !slices.Contains(cfg.Targets, t.Timezone) {
			cfg.Targets = append(cfg.Targets, t.Timezone)
		}
	}
	if err := config.Save(a.configPath, &cfg); err != nil {
		return err
	}
	a.cfg = &cfg
	a.logger.Info("saved defaults", "path", a.configPath, "source", cfg.DefaultSource, "targets", cfg.Targets)
	return nil
}

func (a *app) resolveSource(zone, city string) (*planner.Location, error) {
	switch {
	case city != "":
		c, ok := cities.Lookup(city)
		if !ok {
			return nil, fmt.Errorf("unknown city %q", city)
		}
		if c.Ambiguous() {
			a.logger.Warn("city spans several zones; using the primary one",
				"city", c.Label(), "zone", c.Timezone, "alternates", c.AlternateTimezones)
		}
		loc := planner.FromCity(c, c.Timezone)
		return &loc, nil
	case zone == "":
		zone = a.cfg.DefaultSource
		if zone == "" {
			return nil, errNoSource
		}
	default:
	}
	if _, err := a.zones.Location(zone); err != nil {
		return nil, fmt.Errorf("%w: %q", tzconvert.ErrUnknownTimezone, zone)
	}
	return &planner.Location{Name: zone, Timezone: zone}, nil
}

func (a *app) printTimeline(w io.Writer, plan *planner.Plan) error {
	civil, err := tzconvert.ParseCivilDateTime(plan.DateTime)
	if err != nil {
		return err
	}
	selected, err := a.engine.Resolve(civil, plan.Source.Timezone)
	if err != nil {
		return err
	}
	midnight := civil
	midnight.Hour, midnight.Minute, midnight.Meridiem = 12, 0, tzconvert.AM
	start, err := a.engine.Resolve(midnight, plan.Source.Timezone)
	if err != nil {
		return err
	}

	lanes := []timeline.Lane{{Name: plan.Source.Name, Zone: plan.Source.Timezone}}
	for _, t := range plan.Targets {
		lanes = append(lanes, timeline.Lane{Name: t.Name, Zone: t.Timezone})
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, timeline.Generate(a.zones, start, selected, lanes))
	return nil
}

func (a *app) warnPending(plan *planner.Plan, rows []planner.Row) {
	converted := make(map[string]bool, len(rows))
	for _, r := range rows {
		converted[r.Location.Name] = true
	}
	for _, t := range plan.Targets {
		if !converted[t.Name] {
			_, err := a.engine.ConvertDateTime(plan.DateTime, plan.Source.Timezone, t.Timezone)
			a.logger.Warn("target not converted", "target", t.Name, "zone", t.Timezone, "error", err)
		}
	}
}
