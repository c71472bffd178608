// Package planner holds the state of a conversion session: one source
// location and date/time, and the target locations to compare against.
package planner

import (
	"fmt"

	"github.com/codeGROOVE-dev/tzconv/pkg/cities"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
)

// Location is a named place with a zone.
type Location struct {
	Name     string  `json:"name"`
	Timezone string  `json:"timezone"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// FromCity builds a Location for a catalog city using the given zone,
// which should be one of c.Timezones().
func FromCity(c cities.City, zone string) Location {
	return Location{Name: c.Label(), Timezone: zone, Lat: c.Lat, Lng: c.Lng}
}

// Converter converts civil date/times between zones.
type Converter interface {
	ConvertDateTime(value, fromTz, toTz string) (*tzconvert.Result, error)
}

// Row is one target with its converted time.
type Row struct {
	Location Location          `json:"location"`
	Result   *tzconvert.Result `json:"result"`
}

// Plan is a conversion session. The zero value is an empty plan.
type Plan struct {
	Source   *Location  `json:"source,omitempty"`
	DateTime string     `json:"datetime"`
	Targets  []Location `json:"targets"`
}

// SetSource selects the source location. nil clears it.
func (p *Plan) SetSource(loc *Location) {
	p.Source = loc
}

// SetDateTime records the entered date/time. It is stored as typed;
// Valid reports whether it can be converted.
func (p *Plan) SetDateTime(value string) {
	p.DateTime = value
}

// Valid reports whether the entered date/time parses.
func (p *Plan) Valid() bool {
	return tzconvert.IsValidDateTime(p.DateTime)
}

// AddTarget appends loc unless a target with the same name exists.
// It reports whether loc was added.
func (p *Plan) AddTarget(loc Location) bool {
	for _, t := range p.Targets {
		if t.Name == loc.Name {
			return false
		}
	}
	p.Targets = append(p.Targets, loc)
	return true
}

// RemoveTarget drops the target at index i.
func (p *Plan) RemoveTarget(i int) error {
	if i < 0 || i >= len(p.Targets) {
		return fmt.Errorf("target index %d out of range [0,%d)", i, len(p.Targets))
	}
	p.Targets = append(p.Targets[:i:i], p.Targets[i+1:]...)
	return nil
}

// Ready reports whether there is enough to show results.
func (p *Plan) Ready() bool {
	return p.Source != nil && p.Valid() && len(p.Targets) > 0
}

// SourceLabel describes the source time, e.g. "02/02/2026 (Mon) at 12:00 PM",
// or "" when the date/time is not valid.
func (p *Plan) SourceLabel() string {
	label, err := tzconvert.Describe(p.DateTime)
	if err != nil {
		return ""
	}
	return label
}

// Rows converts the date/time for every target, in order. Targets whose
// conversion fails are left out; callers show them as pending.
func (p *Plan) Rows(conv Converter) []Row {
	if p.Source == nil || !p.Valid() {
		return nil
	}
	rows := make([]Row, 0, len(p.Targets))
	for _, t := range p.Targets {
		r, err := conv.ConvertDateTime(p.DateTime, p.Source.Timezone, t.Timezone)
		if err != nil {
			continue
		}
		rows = append(rows, Row{Location: t, Result: r})
	}
	return rows
}
