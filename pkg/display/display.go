// Package display renders conversion results for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/tzconv/pkg/planner"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	timeColor    = color.New(color.Bold)
	laterColor   = color.New(color.FgYellow)
	earlierColor = color.New(color.FgHiBlack)
	pendingColor = color.New(color.FgRed)
)

// Header writes "At <source> on <time>, it's:" followed by a rule.
func Header(w io.Writer, source, when string) {
	fmt.Fprintf(w, "\n🌍 At %s on %s, it's:\n", headerColor.Sprint(source), timeColor.Sprint(when))
	fmt.Fprintln(w, strings.Repeat("─", 50))
}

// Row writes one converted target.
func Row(w io.Writer, name string, r *tzconvert.Result) {
	if r == nil {
		fmt.Fprintf(w, "🕐 %s %s\n", pendingColor.Sprint(pad("--/--/---- at --:-- --")), name)
		return
	}
	fmt.Fprintf(w, "🕐 %s %s (%s)", timeColor.Sprint(pad(r.String())), name, r.Offset)
	if label := r.DayDiffLabel(); label != "" {
		c := laterColor
		if r.DayDiff < 0 {
			c = earlierColor
		}
		fmt.Fprintf(w, "  %s", c.Sprint(label))
	}
	fmt.Fprintln(w)
}

// pad widens s to the time column. Padding happens before coloring so
// escape codes do not count toward the width.
func pad(s string) string {
	return fmt.Sprintf("%-32s", s)
}

// Rows writes every row of a plan, marking targets without a result as pending.
func Rows(w io.Writer, p *planner.Plan, rows []planner.Row) {
	byName := make(map[string]*tzconvert.Result, len(rows))
	for _, r := range rows {
		byName[r.Location.Name] = r.Result
	}
	for _, t := range p.Targets {
		Row(w, t.Name, byName[t.Name])
	}
}

// Clock writes a zone and its current clock reading.
func Clock(w io.Writer, zone, reading, offset string) {
	fmt.Fprintf(w, "%-32s %s %s\n", zone, timeColor.Sprint(reading), earlierColor.Sprint(offset))
}
