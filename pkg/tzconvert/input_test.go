package tzconvert

import "testing"

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"0", "0"},
		{"022", "02/2"},
		{"02022026", "02/02/2026"},
		{"12252024330P", "12/25/2024 3:30 PM"},
		{"020220261200p", "02/02/2026 12:00 PM"},
		{"020220261200a", "02/02/2026 12:00 AM"},
		{"02022026130A", "02/02/2026 1:30 AM"},
		{"02022026145", "02/02/2026 1:45"},
		{"020220261", "02/02/2026 1"},
		{"0202202610", "02/02/2026 10"},
		{"020220269", "02/02/2026 9"},
		{"02/02/2026 9:15 pm", "02/02/2026 9:15 PM"},
		{"020220269159999", "02/02/2026 9:15"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeInput(tt.raw); got != tt.want {
				t.Errorf("NormalizeInput(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeInputProducesValidInput(t *testing.T) {
	for _, raw := range []string{"12252024330P", "0704202611 05a", "01011900 1200 a"} {
		got := NormalizeInput(raw)
		if !IsValidDateTime(got) {
			t.Errorf("NormalizeInput(%q) = %q, want a valid date/time", raw, got)
		}
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "UTC"},
		{4 * 3600, "UTC+4"},
		{-5 * 3600, "UTC-5"},
		{-(3*3600 + 30*60), "UTC-3:30"},
		{5*3600 + 45*60, "UTC+5:45"},
		{14 * 3600, "UTC+14"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.seconds); got != tt.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDayDiffLabel(t *testing.T) {
	tests := []struct {
		diff int
		want string
	}{
		{0, ""},
		{1, "1 day later"},
		{2, "2 days later"},
		{-1, "1 day earlier"},
		{-2, "2 days earlier"},
	}
	for _, tt := range tests {
		if got := DayDiffLabel(tt.diff); got != tt.want {
			t.Errorf("DayDiffLabel(%d) = %q, want %q", tt.diff, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"020220261000p", "02/02/2026 10:00 PM", true},
		{"02022026 1200p", "02/02/2026 12:00 PM", true},
		{"02/02/2026 13:00 PM", "", false},
		{"2/2/2026 1:00 PM", "", false},
		{"02/02/2026 10:00 PM", "", false},
		{"02022026", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Suggest(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}
