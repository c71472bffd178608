package tzconvert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Meridiem is the AM/PM half of a 12-hour clock reading.
type Meridiem string

// Meridiem values.
const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// Accepted year range for civil input.
const (
	MinYear = 1900
	MaxYear = 2100
)

// civilPattern is the strict input grammar: MM/DD/YYYY H:MM AP.
var civilPattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4}) (\d{1,2}):(\d{2}) ([AaPp][Mm])$`)

// CivilDateTime is a wall-clock reading with no zone attached.
// It only means something when paired with an IANA zone name.
type CivilDateTime struct {
	Meridiem Meridiem
	Month    int
	Day      int
	Year     int
	Hour     int // 1-12
	Minute   int
}

// ParseCivilDateTime parses value using the MM/DD/YYYY H:MM AP grammar.
// Day is range checked (1-31) but not checked against the month length.
func ParseCivilDateTime(value string) (CivilDateTime, error) {
	m := civilPattern.FindStringSubmatch(value)
	if m == nil {
		return CivilDateTime{}, fmt.Errorf("%w: %q does not match MM/DD/YYYY H:MM AM|PM", ErrMalformedInput, value)
	}

	// The regexp guarantees digits, so Atoi cannot fail here.
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	switch {
	case month < 1 || month > 12:
		return CivilDateTime{}, fmt.Errorf("%w: month %d out of range", ErrMalformedInput, month)
	case day < 1 || day > 31:
		return CivilDateTime{}, fmt.Errorf("%w: day %d out of range", ErrMalformedInput, day)
	case year < MinYear || year > MaxYear:
		return CivilDateTime{}, fmt.Errorf("%w: year %d out of range", ErrMalformedInput, year)
	case hour < 1 || hour > 12:
		return CivilDateTime{}, fmt.Errorf("%w: hour %d out of range", ErrMalformedInput, hour)
	case minute > 59:
		return CivilDateTime{}, fmt.Errorf("%w: minute %d out of range", ErrMalformedInput, minute)
	default:
	}

	return CivilDateTime{
		Month:    month,
		Day:      day,
		Year:     year,
		Hour:     hour,
		Minute:   minute,
		Meridiem: Meridiem(strings.ToUpper(m[6])),
	}, nil
}

// IsValidDateTime reports whether value parses as a civil date/time.
func IsValidDateTime(value string) bool {
	_, err := ParseCivilDateTime(value)
	return err == nil
}

// Hour24 returns the hour on a 24-hour clock.
// 12 AM is midnight (0) and 12 PM is noon (12).
func (c CivilDateTime) Hour24() int {
	switch {
	case c.Meridiem == PM && c.Hour != 12:
		return c.Hour + 12
	case c.Meridiem == AM && c.Hour == 12:
		return 0
	default:
		return c.Hour
	}
}

// Date returns the calendar date as written, without normalization.
func (c CivilDateTime) Date() (year int, month time.Month, day int) {
	return c.Year, time.Month(c.Month), c.Day
}

// CalendarValid reports whether the day exists in the given month,
// taking leap years into account.
func (c CivilDateTime) CalendarValid() bool {
	t := time.Date(c.Year, time.Month(c.Month), c.Day, 0, 0, 0, 0, time.UTC)
	return t.Day() == c.Day && int(t.Month()) == c.Month
}

// String renders the canonical input form, e.g. "02/02/2026 12:00 PM".
func (c CivilDateTime) String() string {
	return fmt.Sprintf("%02d/%02d/%04d %d:%02d %s", c.Month, c.Day, c.Year, c.Hour, c.Minute, c.Meridiem)
}

// to12Hour converts a 0-23 hour to its 12-hour clock reading.
func to12Hour(hour int) (int, Meridiem) {
	switch {
	case hour == 0:
		return 12, AM
	case hour == 12:
		return 12, PM
	case hour > 12:
		return hour - 12, PM
	default:
		return hour, AM
	}
}
