package tzconvert

import "strings"

// NormalizeInput turns loosely typed digits into the MM/DD/YYYY H:MM AP
// grammar, the way the date/time entry field does as the user types.
// Everything but digits is dropped, except that a P (or else an A)
// anywhere in raw selects the meridiem. "12252024330P" becomes
// "12/25/2024 3:30 PM".
//
// The output may still be incomplete or invalid; run it through
// IsValidDateTime before converting.
func NormalizeInput(raw string) string {
	upper := strings.ToUpper(raw)

	var digits []byte
	for i := range len(upper) {
		if c := upper[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	var b strings.Builder
	for i := 0; i < len(digits) && i < 8; i++ {
		if i == 2 || i == 4 {
			b.WriteByte('/')
		}
		b.WriteByte(digits[i])
	}
	if len(digits) <= 8 {
		return b.String()
	}

	b.WriteByte(' ')
	hour, minute := splitClockDigits(string(digits[8:]))
	b.WriteString(hour)
	if minute != "" {
		b.WriteByte(':')
		b.WriteString(minute)
	}

	switch {
	case strings.Contains(upper, "P"):
		b.WriteString(" PM")
	case strings.Contains(upper, "A"):
		b.WriteString(" AM")
	default:
	}
	return b.String()
}

// splitClockDigits splits time digits into hour and minute parts. A
// leading digit above 1, or a two-digit prefix above 12, is a one-digit
// hour. Minutes are cut to two digits.
func splitClockDigits(d string) (hour, minute string) {
	switch {
	case d[0] > '1':
		hour, minute = d[:1], d[1:]
	case len(d) < 2:
		return d, ""
	case d[:2] > "12":
		hour, minute = d[:1], d[1:]
	default:
		hour, minute = d[:2], d[2:]
	}
	if len(minute) > 2 {
		minute = minute[:2]
	}
	return hour, minute
}

// Suggest returns the normalized form of digit-entry input such as
// "020220261000p" when it is valid and differs from raw. Input that
// already uses / or : separators is never rewritten; a mistyped field
// there is an error, not a different time.
func Suggest(raw string) (string, bool) {
	if strings.ContainsAny(raw, "/:") {
		return "", false
	}
	n := NormalizeInput(raw)
	if n == raw || !IsValidDateTime(n) {
		return "", false
	}
	return n, true
}
