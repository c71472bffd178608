// Package constants defines shared defaults for tzconv.
package constants

import "time"

// Cache sizes, in entries.
const (
	ZoneCacheSize     = 2_000
	LocateCacheSize   = 10_000
	ResponseCacheSize = 10_000
	MapsCacheSize     = 1_000
)

// LocateCacheTTL bounds how long a coordinate lookup is reused. Zone
// boundaries change rarely, so a day is plenty.
const LocateCacheTTL = 24 * time.Hour

// Defaults for the configuration file.
const (
	DefaultListen    = "127.0.0.1:8080"
	DefaultCacheTTL  = 12 * time.Hour
	DefaultRateLimit = 60
)

// MapsTimeout caps a single Google Maps request, retries excluded.
const MapsTimeout = 10 * time.Second
