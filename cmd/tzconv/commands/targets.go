package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/tzconv/internal/config"
	"github.com/codeGROOVE-dev/tzconv/pkg/cities"
	"github.com/codeGROOVE-dev/tzconv/pkg/planner"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
)

func targetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List or edit the default target zones",
		Long: `Targets manages the zones convert and now use when none are given.
Changes are written to the config file.

Examples:
  tzconv targets add Asia/Tokyo "London, United Kingdom"
  tzconv targets remove 2
  tzconv targets remove Asia/Tokyo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.listTargets(cmd, a.targetPlan())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <zone|city>...",
		Short: "Add target zones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := a.targetPlan()
			for _, arg := range args {
				zone, err := a.targetZone(arg)
				if err != nil {
					return err
				}
				if !plan.AddTarget(planner.Location{Name: zone, Timezone: zone}) {
					a.logger.Info("already a target", "zone", zone)
				}
			}
			return a.saveTargets(cmd, plan)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <index|zone>...",
		Short: "Remove target zones by list position or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := a.targetPlan()
			for _, arg := range args {
				i, err := targetIndex(plan, arg)
				if err != nil {
					return err
				}
				if err := plan.RemoveTarget(i); err != nil {
					return err
				}
			}
			return a.saveTargets(cmd, plan)
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

// targetPlan loads the configured targets into a plan.
func (a *app) targetPlan() *planner.Plan {
	plan := &planner.Plan{}
	for _, zone := range a.cfg.Targets {
		plan.AddTarget(planner.Location{Name: zone, Timezone: zone})
	}
	return plan
}

// targetZone accepts an IANA zone or a catalog city label.
func (a *app) targetZone(arg string) (string, error) {
	if a.zones.Valid(arg) {
		return arg, nil
	}
	if c, ok := cities.Lookup(arg); ok {
		return c.Timezone, nil
	}
	return "", fmt.Errorf("%w: %q", tzconvert.ErrUnknownTimezone, arg)
}

// targetIndex resolves a 1-based list position or a zone name.
func targetIndex(plan *planner.Plan, arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return n - 1, nil
	}
	for i, t := range plan.Targets {
		if t.Name == arg {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q is not a target", arg)
}

func (a *app) saveTargets(cmd *cobra.Command, plan *planner.Plan) error {
	cfg := *a.cfg
	cfg.Targets = make([]string, 0, len(plan.Targets))
	for _, t := range plan.Targets {
		cfg.Targets = append(cfg.Targets, t.Timezone)
	}
	if err := config.Save(a.configPath, &cfg); err != nil {
		return err
	}
	a.cfg = &cfg
	a.logger.Debug("targets saved", "path", a.configPath, "targets", len(cfg.Targets))
	a.listTargets(cmd, plan)
	return nil
}

func (a *app) listTargets(cmd *cobra.Command, plan *planner.Plan) {
	out := cmd.OutOrStdout()
	if len(plan.Targets) == 0 {
		fmt.Fprintln(out, "no targets configured")
		return
	}
	for i, t := range plan.Targets {
		fmt.Fprintf(out, "%d. %s\n", i+1, t.Name)
	}
}
