package tzconvert

import (
	"fmt"
	"time"
)

// Result is a converted wall-clock reading in the target zone.
type Result struct {
	Instant   time.Time `json:"instant"`
	Month     string    `json:"month"`
	Day       string    `json:"day"`
	Year      string    `json:"year"`
	DayOfWeek string    `json:"day_of_week"`
	Hour      string    `json:"hour"`
	Minute    string    `json:"minute"`
	Meridiem  Meridiem  `json:"meridiem"`
	Offset    string    `json:"utc_offset"`
	// DayDiff counts calendar days from the source date to the target date,
	// ignoring time of day. Positive means the target date is later.
	DayDiff int `json:"day_diff"`
}

// String renders the result as "02/03/2026 (Tue) at 9:00 PM".
func (r *Result) String() string {
	return fmt.Sprintf("%s/%s/%s (%s) at %s:%s %s",
		r.Month, r.Day, r.Year, r.DayOfWeek, r.Hour, r.Minute, r.Meridiem)
}

// DayDiffLabel describes DayDiff for display: "" for the same day,
// otherwise "1 day later", "2 days earlier" and so on.
func (r *Result) DayDiffLabel() string {
	return DayDiffLabel(r.DayDiff)
}

// DayDiffLabel describes a calendar-day difference for display.
func DayDiffLabel(diff int) string {
	if diff == 0 {
		return ""
	}
	direction := "later"
	n := diff
	if diff < 0 {
		direction = "earlier"
		n = -diff
	}
	unit := "day"
	if n > 1 {
		unit = "days"
	}
	return fmt.Sprintf("%d %s %s", n, unit, direction)
}

// Describe renders a civil reading with its weekday, in the same form as
// Result.String. It is used to label the source side of a conversion.
func Describe(value string) (string, error) {
	civil, err := ParseCivilDateTime(value)
	if err != nil {
		return "", err
	}
	year, month, day := civil.Date()
	return fmt.Sprintf("%02d/%02d/%04d (%s) at %d:%02d %s",
		civil.Month, civil.Day, civil.Year, shortWeekday(year, month, day),
		civil.Hour, civil.Minute, civil.Meridiem), nil
}
