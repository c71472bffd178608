// Package timeline draws a 24-hour overlap chart: one lane per zone, one
// cell per hour of the source day, colored by time of day.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/tzconv/pkg/zoneinfo"
)

// Period classifies a local hour.
type Period int

// Periods of the day.
const (
	Night Period = iota
	Shoulder
	Work
)

// Renderer renders an instant in a named zone.
type Renderer interface {
	Render(instant time.Time, name string) (zoneinfo.Fields, error)
}

// Lane is one row of the chart.
type Lane struct {
	Name string
	Zone string
}

var (
	workColor     = color.New(color.FgGreen)
	shoulderColor = color.New(color.FgYellow)
	nightColor    = color.New(color.FgBlue)
	missingColor  = color.New(color.FgHiBlack)
	markColor     = color.New(color.FgCyan, color.Bold)
)

// Classify returns the period for a local hour (0-23): 09-17 is work,
// 07-09 and 17-22 are shoulder hours, the rest is night.
func Classify(hour int) Period {
	switch {
	case hour >= 9 && hour < 17:
		return Work
	case hour >= 7 && hour < 22:
		return Shoulder
	default:
		return Night
	}
}

func (p Period) color() *color.Color {
	switch p {
	case Work:
		return workColor
	case Shoulder:
		return shoulderColor
	default:
		return nightColor
	}
}

// Generate renders 24 hourly columns starting at start (usually midnight
// of the source date). The column containing selected is marked. Lanes
// whose zone cannot be rendered show "--".
func Generate(r Renderer, start, selected time.Time, lanes []Lane) string {
	var out strings.Builder

	out.WriteString("📅 24-hour overlap\n")
	out.WriteString(strings.Repeat("─", 50) + "\n")

	width := 0
	for _, l := range lanes {
		width = max(width, len(l.Name))
	}

	mark := -1
	for h := range 24 {
		at := start.Add(time.Duration(h) * time.Hour)
		if !selected.Before(at) && selected.Before(at.Add(time.Hour)) {
			mark = h
		}
	}

	for _, l := range lanes {
		fmt.Fprintf(&out, "%-*s ", width, l.Name)
		for h := range 24 {
			f, err := r.Render(start.Add(time.Duration(h)*time.Hour), l.Zone)
			if err != nil {
				out.WriteString(missingColor.Sprint("--") + " ")
				continue
			}
			cell := fmt.Sprintf("%02d ", f.Hour)
			if f.Minute != 0 {
				// Half- and quarter-hour zones.
				cell = fmt.Sprintf("%02d'", f.Hour)
			}
			out.WriteString(Classify(f.Hour).color().Sprint(cell))
		}
		out.WriteString("\n")
	}

	if mark >= 0 {
		fmt.Fprintf(&out, "%-*s %s%s\n", width, "", strings.Repeat("   ", mark), markColor.Sprint("^^"))
	}

	out.WriteString("\n")
	fmt.Fprintf(&out, "%s work  %s morning/evening  %s night  ' offset by minutes\n",
		workColor.Sprint("██"), shoulderColor.Sprint("██"), nightColor.Sprint("██"))
	return out.String()
}
