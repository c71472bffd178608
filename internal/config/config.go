// Package config loads tzconv settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/tzconv/pkg/constants"
)

// Config is the top-level application configuration. Environment
// variables named in the env tags override the file.
type Config struct {
	// Listen is the HTTP listen address for `tzconv serve`.
	Listen string `yaml:"listen" env:"TZCONV_LISTEN"`

	// DefaultSource is the IANA zone used when --from is omitted.
	// Empty means --from is required.
	DefaultSource string `yaml:"default_source" env:"TZCONV_DEFAULT_SOURCE"`

	// Targets are the zones converted to when --to is omitted.
	Targets []string `yaml:"targets" env:"TZCONV_TARGETS" env-separator:","`

	// MapsAPIKey enables Google Maps fallbacks for locate.
	MapsAPIKey string `yaml:"maps_api_key" env:"GOOGLE_MAPS_API_KEY"`

	// CacheTTL bounds how long HTTP API responses and Maps lookups are cached.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`

	// RateLimit is the number of API requests allowed per client IP per minute.
	RateLimit int `yaml:"rate_limit" env:"TZCONV_RATE_LIMIT"`

	// StrictCalendar rejects dates such as 02/30 instead of rolling them over.
	StrictCalendar bool `yaml:"strict_calendar" env:"TZCONV_STRICT_CALENDAR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:    constants.DefaultListen,
		CacheTTL:  constants.DefaultCacheTTL,
		RateLimit: constants.DefaultRateLimit,
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	d := Default()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.RateLimit <= 0 {
		c.RateLimit = d.RateLimit
	}
}

// DefaultPath is $XDG_CONFIG_HOME/tzconv/config.yaml (or the platform
// equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tzconv", "config.yaml")
}

// Load reads path, applies environment overrides and normalizes the
// result. A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); path != "" && err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		if path != "" && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration to path with 0600 permissions, creating
// the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
