// Package geotz maps coordinates and place names to IANA zone names.
//
// Lookups use the offline latlong tables first and fall back to the Google
// Maps Time Zone API when a client is configured.
package geotz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bradfitz/latlong"
	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/tzconv/pkg/constants"
	"github.com/codeGROOVE-dev/tzconv/pkg/googlemaps"
)

// Lookup errors.
var (
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrNotFound           = errors.New("no timezone for location")
)

// ZoneAPI resolves coordinates and addresses remotely.
type ZoneAPI interface {
	Configured() bool
	TimezoneForCoordinates(ctx context.Context, lat, lng float64, at time.Time) (string, error)
	GeocodeLocation(ctx context.Context, location string) (*googlemaps.Location, error)
}

// Result is a resolved location.
type Result struct {
	Timezone string  `json:"timezone"`
	Source   string  `json:"source"` // "offline" or "maps"
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Locator resolves coordinates to zones. It is safe for concurrent use.
type Locator struct {
	api    ZoneAPI
	cache  *otter.Cache[string, Result]
	logger *slog.Logger
	now    func() time.Time
	// offline is swappable so tests can simulate gaps in the tables.
	offline func(lat, lng float64) string
}

// New returns a Locator. api may be nil for offline-only lookups.
func New(api ZoneAPI, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		api: api,
		cache: otter.Must(&otter.Options[string, Result]{
			MaximumSize:      constants.LocateCacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, Result](constants.LocateCacheTTL),
		}),
		logger:  logger,
		now:     time.Now,
		offline: latlong.LookupZoneName,
	}
}

// Lookup returns the zone containing lat/lng.
func (l *Locator) Lookup(ctx context.Context, lat, lng float64) (Result, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Result{}, fmt.Errorf("%w: %f,%f", ErrInvalidCoordinates, lat, lng)
	}

	// Roughly 100m cells.
	key := fmt.Sprintf("%.3f,%.3f", lat, lng)
	if r, ok := l.cache.GetIfPresent(key); ok {
		return r, nil
	}

	if name := l.offline(lat, lng); name != "" {
		r := Result{Timezone: name, Source: "offline", Lat: lat, Lng: lng}
		l.cache.Set(key, r)
		return r, nil
	}

	if l.api == nil || !l.api.Configured() {
		return Result{}, fmt.Errorf("%w: %f,%f", ErrNotFound, lat, lng)
	}

	name, err := l.api.TimezoneForCoordinates(ctx, lat, lng, l.now())
	if err != nil {
		l.logger.Debug("maps timezone lookup failed", "lat", lat, "lng", lng, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	r := Result{Timezone: name, Source: "maps", Lat: lat, Lng: lng}
	l.cache.Set(key, r)
	return r, nil
}

// LookupAddress geocodes a place name and returns its zone. It needs a
// configured Maps client.
func (l *Locator) LookupAddress(ctx context.Context, address string) (Result, error) {
	if l.api == nil || !l.api.Configured() {
		return Result{}, googlemaps.ErrNoAPIKey
	}
	loc, err := l.api.GeocodeLocation(ctx, address)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return l.Lookup(ctx, loc.Latitude, loc.Longitude)
}
