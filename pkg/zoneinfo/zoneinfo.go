// Package zoneinfo resolves IANA timezone names and renders instants as
// civil fields in those zones. It is the only place that talks to the
// timezone database; everything else asks it.
package zoneinfo

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // fallback when the host has no zoneinfo files

	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/tzconv/pkg/constants"
)

// ErrUnknownZone is returned for names the timezone database does not know.
var ErrUnknownZone = errors.New("unknown timezone")

// Fields is an instant broken down into wall-clock values for one zone.
type Fields struct {
	Abbrev  string       `json:"abbrev"`
	Year    int          `json:"year"`
	Month   time.Month   `json:"month"`
	Day     int          `json:"day"`
	Hour    int          `json:"hour"` // 0-23
	Minute  int          `json:"minute"`
	Second  int          `json:"second"`
	Weekday time.Weekday `json:"weekday"`
	Offset  int          `json:"offset"` // seconds east of UTC
}

type cached struct {
	loc *time.Location
	err error
}

// Service loads zones from the IANA database and memoizes them.
// It is safe for concurrent use.
type Service struct {
	cache  *otter.Cache[string, cached]
	logger *slog.Logger
}

// New returns a Service. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache: otter.Must(&otter.Options[string, cached]{
			MaximumSize:     constants.ZoneCacheSize,
			InitialCapacity: 64,
		}),
		logger: logger,
	}
}

var defaultService = New(nil)

// Default returns the process-wide Service.
func Default() *Service {
	return defaultService
}

// Location returns the zone for an IANA name such as "America/New_York".
// The empty name and "Local" are rejected so results never depend on the
// host's configured zone.
func (s *Service) Location(name string) (*time.Location, error) {
	if entry, ok := s.cache.GetIfPresent(name); ok {
		return entry.loc, entry.err
	}

	var entry cached
	if name == "" || strings.EqualFold(name, "Local") {
		entry.err = fmt.Errorf("%w: %q", ErrUnknownZone, name)
	} else if loc, err := time.LoadLocation(name); err != nil {
		s.logger.Debug("timezone lookup failed", "zone", name, "error", err)
		entry.err = fmt.Errorf("%w: %q", ErrUnknownZone, name)
	} else {
		entry.loc = loc
	}

	s.cache.Set(name, entry)
	return entry.loc, entry.err
}

// Valid reports whether name resolves to a zone.
func (s *Service) Valid(name string) bool {
	_, err := s.Location(name)
	return err == nil
}

// Render breaks instant down into the wall-clock fields of the named zone,
// using whatever offset is in effect at that instant.
func (s *Service) Render(instant time.Time, name string) (Fields, error) {
	loc, err := s.Location(name)
	if err != nil {
		return Fields{}, err
	}
	local := instant.In(loc)
	abbrev, offset := local.Zone()
	return Fields{
		Year:    local.Year(),
		Month:   local.Month(),
		Day:     local.Day(),
		Hour:    local.Hour(),
		Minute:  local.Minute(),
		Second:  local.Second(),
		Weekday: local.Weekday(),
		Offset:  offset,
		Abbrev:  abbrev,
	}, nil
}

// CurrentTime returns a short clock reading like "3:04 PM" for the zone at
// now, or "--:-- --" when the zone cannot be resolved.
func (s *Service) CurrentTime(name string, now time.Time) string {
	loc, err := s.Location(name)
	if err != nil {
		return "--:-- --"
	}
	return now.In(loc).Format("3:04 PM")
}
