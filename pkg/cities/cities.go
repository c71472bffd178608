// Package cities is the catalog of selectable locations and their zones.
package cities

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var catalogYAML []byte

// DefaultLimit caps search results when the caller passes no limit.
const DefaultLimit = 50

// City is a selectable location.
type City struct {
	Name               string   `yaml:"name" json:"name"`
	Country            string   `yaml:"country" json:"country"`
	Timezone           string   `yaml:"timezone" json:"timezone"`
	AlternateTimezones []string `yaml:"alternate_timezones,omitempty" json:"alternate_timezones,omitempty"`
	Lat                float64  `yaml:"lat" json:"lat"`
	Lng                float64  `yaml:"lng" json:"lng"`
}

// Label is the display name, e.g. "Dubai, United Arab Emirates".
func (c City) Label() string {
	return c.Name + ", " + c.Country
}

// Timezones lists the primary zone followed by any alternates.
// A city with more than one zone needs the user to pick.
func (c City) Timezones() []string {
	return append([]string{c.Timezone}, c.AlternateTimezones...)
}

// Ambiguous reports whether the city spans more than one zone.
func (c City) Ambiguous() bool {
	return len(c.AlternateTimezones) > 0
}

var (
	loadOnce sync.Once
	catalog  []City
	errLoad  error
)

// All returns the catalog sorted by name. The slice is shared; do not modify it.
func All() ([]City, error) {
	loadOnce.Do(func() {
		catalog, errLoad = parse(catalogYAML)
	})
	return catalog, errLoad
}

func parse(data []byte) ([]City, error) {
	var list []City
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding city catalog: %w", err)
	}
	for i, c := range list {
		if c.Name == "" || c.Timezone == "" {
			return nil, fmt.Errorf("city catalog entry %d: name and timezone are required", i)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// Search returns cities whose name or country contains query, ignoring
// case, sorted by name. An empty query matches everything. limit <= 0
// means DefaultLimit.
func Search(query string, limit int) ([]City, error) {
	all, err := All()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var out []City
	for _, c := range all {
		if len(out) == limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Country), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Lookup finds a city by its label ("Tokyo, Japan") or, failing that, by
// a unique name ("Tokyo"). Matching ignores case.
func Lookup(label string) (City, bool) {
	all, err := All()
	if err != nil {
		return City{}, false
	}
	label = strings.TrimSpace(label)

	for _, c := range all {
		if strings.EqualFold(c.Label(), label) {
			return c, true
		}
	}

	var match City
	n := 0
	for _, c := range all {
		if strings.EqualFold(c.Name, label) {
			match = c
			n++
		}
	}
	return match, n == 1
}

// ZoneChecker reports whether a zone name resolves.
type ZoneChecker interface {
	Valid(name string) bool
}

// Validate returns the labels of cities with a zone the checker rejects.
func Validate(zones ZoneChecker) ([]string, error) {
	all, err := All()
	if err != nil {
		return nil, err
	}
	var bad []string
	for _, c := range all {
		for _, tz := range c.Timezones() {
			if !zones.Valid(tz) {
				bad = append(bad, c.Label()+" ("+tz+")")
			}
		}
	}
	return bad, nil
}
