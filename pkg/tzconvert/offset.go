package tzconvert

import "fmt"

// FormatOffset renders a UTC offset in seconds for display.
// Examples:
//   - 0 returns "UTC"
//   - 14400 returns "UTC+4"
//   - -12600 returns "UTC-3:30"
//   - 20700 returns "UTC+5:45"
func FormatOffset(seconds int) string {
	if seconds == 0 {
		return "UTC"
	}
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if minutes == 0 {
		return fmt.Sprintf("UTC%c%d", sign, hours)
	}
	return fmt.Sprintf("UTC%c%d:%02d", sign, hours, minutes)
}
