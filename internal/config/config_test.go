package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `listen: ":9090"
default_source: America/New_York
targets:
  - Asia/Tokyo
  - Europe/London
cache_ttl: 30m
strict_calendar: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Config{
		Listen:         ":9090",
		DefaultSource:  "America/New_York",
		Targets:        []string{"Asia/Tokyo", "Europe/London"},
		CacheTTL:       30 * time.Minute,
		RateLimit:      60,
		StrictCalendar: true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() succeeded on malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TZCONV_LISTEN", ":7000")
	t.Setenv("GOOGLE_MAPS_API_KEY", "k")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("TZCONV_RATE_LIMIT", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":7000" || cfg.MapsAPIKey != "k" || cfg.CacheTTL != 5*time.Minute || cfg.RateLimit != 10 {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestEnvErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CACHE_TTL", "soon"},
		{"TZCONV_RATE_LIMIT", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(""); err == nil {
				t.Errorf("Load() with %s=%s succeeded", tt.key, tt.value)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9090\"\ntargets: [Asia/Tokyo]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TZCONV_LISTEN", ":7000")
	t.Setenv("TZCONV_TARGETS", "Europe/Paris,Asia/Dubai")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":7000" {
		t.Errorf("Listen = %q, want env override", cfg.Listen)
	}
	if diff := cmp.Diff([]string{"Europe/Paris", "Asia/Dubai"}, cfg.Targets); diff != "" {
		t.Errorf("Targets mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Targets = []string{"Asia/Dubai"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
