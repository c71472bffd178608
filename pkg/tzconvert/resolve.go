package tzconvert

import "time"

// resolveWallClock finds the instant at which the wall clock in loc reads
// the given civil fields.
//
// Ambiguous readings (the repeated hour when clocks fall back) resolve to
// the earlier instant. Readings that do not exist (the hour skipped when
// clocks spring forward) are taken with the offset in effect before the
// transition, which lands after it: 02:30 in a one-hour gap reads as 03:30.
func resolveWallClock(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	naive := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	var best time.Time
	found := false
	for _, offset := range nearbyOffsets(loc, naive) {
		candidate := naive.Add(-time.Duration(offset) * time.Second)
		if _, actual := candidate.In(loc).Zone(); actual != offset {
			continue
		}
		if !found || candidate.Before(best) {
			best, found = candidate, true
		}
	}
	if found {
		return best.In(loc)
	}

	// Gap: no offset maps back onto this reading.
	_, before := naive.Add(-24 * time.Hour).In(loc).Zone()
	return naive.Add(-time.Duration(before) * time.Second).In(loc)
}

// nearbyOffsets returns the distinct UTC offsets loc uses within a day on
// either side of t. No zone changes offset twice in that window.
func nearbyOffsets(loc *time.Location, t time.Time) []int {
	offsets := make([]int, 0, 3)
	for _, probe := range []time.Time{t.Add(-24 * time.Hour), t, t.Add(24 * time.Hour)} {
		_, offset := probe.In(loc).Zone()
		seen := false
		for _, o := range offsets {
			if o == offset {
				seen = true
				break
			}
		}
		if !seen {
			offsets = append(offsets, offset)
		}
	}
	return offsets
}
