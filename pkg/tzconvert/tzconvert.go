// Package tzconvert converts civil (wall-clock) date/times between IANA
// timezones.
//
// Conversions resolve the source zone's offset for the specific calendar
// date supplied, so DST is honored on both sides. Nothing here assumes a
// fixed offset per zone, and nothing depends on the host's local zone.
package tzconvert

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/tzconv/pkg/zoneinfo"
)

// Errors returned by conversions. Callers should test with errors.Is.
var (
	ErrMalformedInput   = errors.New("malformed date/time")
	ErrUnknownTimezone  = errors.New("unknown timezone")
	ErrFormatterFailure = errors.New("timezone formatting failed")
)

// ZoneService is the timezone database collaborator.
type ZoneService interface {
	Location(name string) (*time.Location, error)
	Render(instant time.Time, name string) (zoneinfo.Fields, error)
}

// Engine performs conversions. The zero value is not usable; call New.
// An Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	zones  ZoneService
	logger *slog.Logger
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithZoneService sets the timezone database collaborator.
func WithZoneService(zs ZoneService) Option {
	return func(e *Engine) {
		e.zones = zs
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStrictCalendar rejects dates that do not exist, such as 02/30/2026.
// Without it they roll over into the following month (02/30/2026 is read
// as 03/02/2026).
func WithStrictCalendar() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// New returns an Engine backed by zoneinfo.Default unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.zones == nil {
		e.zones = zoneinfo.Default()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

var defaultEngine = New()

// ConvertDateTime converts value using a default Engine.
func ConvertDateTime(value, fromTz, toTz string) (*Result, error) {
	return defaultEngine.ConvertDateTime(value, fromTz, toTz)
}

// ConvertDateTime reads value as wall-clock time in fromTz and returns the
// same instant as wall-clock time in toTz.
//
// It never panics. On failure the result is nil and the error wraps one of
// ErrMalformedInput, ErrUnknownTimezone or ErrFormatterFailure.
func (e *Engine) ConvertDateTime(value, fromTz, toTz string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("conversion panicked", "value", value, "from", fromTz, "to", toTz, "panic", r)
			result, err = nil, fmt.Errorf("%w: %v", ErrFormatterFailure, r)
		}
	}()

	civil, err := ParseCivilDateTime(value)
	if err != nil {
		return nil, err
	}
	if e.strict && !civil.CalendarValid() {
		return nil, fmt.Errorf("%w: %s is not a calendar date", ErrMalformedInput, civil)
	}

	instant, err := e.Resolve(civil, fromTz)
	if err != nil {
		e.logger.Debug("source zone resolution failed", "from", fromTz, "error", err)
		return nil, err
	}

	fields, err := e.zones.Render(instant, toTz)
	if err != nil {
		e.logger.Debug("target zone rendering failed", "to", toTz, "error", err)
		return nil, classify(toTz, err)
	}

	hour, meridiem := to12Hour(fields.Hour)
	year, month, day := civil.Date()
	result = &Result{
		Month:     fmt.Sprintf("%02d", int(fields.Month)),
		Day:       fmt.Sprintf("%02d", fields.Day),
		Year:      fmt.Sprintf("%04d", fields.Year),
		DayOfWeek: shortWeekday(fields.Year, fields.Month, fields.Day),
		Hour:      fmt.Sprintf("%d", hour),
		Minute:    fmt.Sprintf("%02d", fields.Minute),
		Meridiem:  meridiem,
		DayDiff:   dayNumber(fields.Year, fields.Month, fields.Day) - dayNumber(year, month, day),
		Offset:    FormatOffset(fields.Offset),
		Instant:   instant.UTC(),
	}

	e.logger.Debug("converted",
		"value", value,
		"from", fromTz,
		"to", toTz,
		"instant", result.Instant,
		"day_diff", result.DayDiff)
	return result, nil
}

// Resolve returns the absolute instant at which the wall clock in zone
// reads civil. Gaps and overlaps follow the policy documented on
// resolveWallClock.
func (e *Engine) Resolve(civil CivilDateTime, zone string) (time.Time, error) {
	loc, err := e.zones.Location(zone)
	if err != nil {
		return time.Time{}, classify(zone, err)
	}
	year, month, day := civil.Date()
	return resolveWallClock(loc, year, month, day, civil.Hour24(), civil.Minute), nil
}

func classify(zone string, err error) error {
	if errors.Is(err, zoneinfo.ErrUnknownZone) {
		return fmt.Errorf("%w: %q", ErrUnknownTimezone, zone)
	}
	return fmt.Errorf("%w: %w", ErrFormatterFailure, err)
}

// shortWeekday returns the en-US abbreviated weekday, e.g. "Wed".
func shortWeekday(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday().String()[:3]
}

// dayNumber counts days since 1970-01-01 on the proleptic Gregorian
// calendar. Out-of-range days normalize the way time.Date does.
func dayNumber(year int, month time.Month, day int) int {
	return int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
