package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/tzconv/pkg/cities"
	"github.com/codeGROOVE-dev/tzconv/pkg/display"
	"github.com/codeGROOVE-dev/tzconv/pkg/geotz"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <MM/DD/YYYY H:MM AM|PM>",
		Short: "Check a date and time against the input format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.Join(args, " ")
			if !tzconvert.IsValidDateTime(value) {
				if n, ok := tzconvert.Suggest(value); ok {
					return fmt.Errorf("%w: %q (did you mean %q?)", tzconvert.ErrMalformedInput, value, n)
				}
				return fmt.Errorf("%w: %q", tzconvert.ErrMalformedInput, value)
			}
			label, err := tzconvert.Describe(value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %s\n", label)
			return nil
		},
	}
}

func nowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "now [zone...]",
		Short: "Show the current time in each zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			zones := args
			if len(zones) == 0 {
				if a.cfg.DefaultSource != "" {
					zones = append(zones, a.cfg.DefaultSource)
				}
				zones = append(zones, a.cfg.Targets...)
			}
			if len(zones) == 0 {
				return errors.New("no zones: pass zone names or set targets in the config")
			}

			now := a.now()
			var failed []string
			for _, z := range zones {
				f, err := a.zones.Render(now, z)
				if err != nil {
					failed = append(failed, z)
					display.Clock(cmd.OutOrStdout(), z, a.zones.CurrentTime(z, now), "")
					continue
				}
				display.Clock(cmd.OutOrStdout(), z, a.zones.CurrentTime(z, now), tzconvert.FormatOffset(f.Offset))
			}
			if len(failed) > 0 {
				return fmt.Errorf("%w: %s", tzconvert.ErrUnknownTimezone, strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func citiesCmd(_ *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "cities [query]",
		Short: "Search the city catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			found, err := cities.Search(query, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range found {
				fmt.Fprintf(out, "%-40s %s\n", c.Label(), strings.Join(c.Timezones(), ", "))
			}
			if len(found) == 0 {
				fmt.Fprintf(out, "no cities match %q\n", query)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", cities.DefaultLimit, "maximum number of results")
	return cmd
}

func locateCmd(a *app) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "locate <lat> <lng>",
		Short: "Find the zone for coordinates or, with --address, a place name",
		Args: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res geotz.Result
				err error
			)
			if address != "" {
				res, err = a.locator.LookupAddress(cmd.Context(), address)
			} else {
				lat, errLat := strconv.ParseFloat(args[0], 64)
				lng, errLng := strconv.ParseFloat(args[1], 64)
				if err := errors.Join(errLat, errLng); err != nil {
					return fmt.Errorf("%w: %w", geotz.ErrInvalidCoordinates, err)
				}
				res, err = a.locator.Lookup(cmd.Context(), lat, lng)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%.4f, %.4f) via %s\n", res.Timezone, res.Lat, res.Lng, res.Source)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "place name to geocode (needs a Maps API key)")
	return cmd
}
