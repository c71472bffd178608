// Package server exposes the conversion engine over a JSON HTTP API.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/tzconv/pkg/cities"
	"github.com/codeGROOVE-dev/tzconv/pkg/constants"
	"github.com/codeGROOVE-dev/tzconv/pkg/geotz"
	"github.com/codeGROOVE-dev/tzconv/pkg/httpcache"
	"github.com/codeGROOVE-dev/tzconv/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzconv/pkg/zoneinfo"
)

const maxBodyBytes = 64 << 10

// Server serves the /api/v1 endpoints.
type Server struct {
	engine  *tzconvert.Engine
	zones   *zoneinfo.Service
	locator *geotz.Locator
	cache   *httpcache.Cache
	limiter *rateLimiter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithEngine sets the conversion engine.
func WithEngine(e *tzconvert.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithZones sets the zone service used by /now and for validating zones.
func WithZones(z *zoneinfo.Service) Option {
	return func(s *Server) { s.zones = z }
}

// WithLocator sets the coordinate locator used by /locate.
func WithLocator(l *geotz.Locator) Option {
	return func(s *Server) { s.locator = l }
}

// WithCacheTTL sets how long convert, cities and locate responses are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) { s.cache = httpcache.New(constants.ResponseCacheSize, ttl, s.logger) }
}

// WithRateLimit sets the number of API requests allowed per client IP per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.limiter.limit = perMinute }
}

// New returns a Server with defaults for anything not set by opts.
func New(logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:  logger,
		limiter: newRateLimiter(constants.DefaultRateLimit),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.zones == nil {
		s.zones = zoneinfo.Default()
	}
	if s.engine == nil {
		s.engine = tzconvert.New(tzconvert.WithZoneService(s.zones), tzconvert.WithLogger(logger))
	}
	if s.locator == nil {
		s.locator = geotz.New(nil, logger)
	}
	if s.cache == nil {
		s.cache = httpcache.New(constants.ResponseCacheSize, constants.DefaultCacheTTL, logger)
	}
	return s
}

// Handler returns the routed, wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/convert", s.limited(s.handleConvert))
	mux.HandleFunc("GET /api/v1/validate", s.limited(s.handleValidate))
	mux.HandleFunc("GET /api/v1/cities", s.limited(s.handleCities))
	mux.HandleFunc("GET /api/v1/locate", s.limited(s.handleLocate))
	mux.HandleFunc("GET /api/v1/now", s.limited(s.handleNow))
	return s.wrap(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

type rateLimiter struct {
	requests  map[string][]time.Time
	now       func() time.Time
	lastSweep time.Time
	limit     int
	mu        sync.Mutex
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
		limit:    limit,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-time.Minute)
	if now.Sub(rl.lastSweep) > time.Minute {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

// sweep forgets clients whose latest request is older than cutoff.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for ip, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.requests, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store")
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Warn("Rate limit exceeded",
				"request_id", w.Header().Get("X-Request-ID"),
				"client_ip", ip,
				"path", r.URL.Path)
			s.writeError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded", "")
			return
		}
		next(w, r)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg, details string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Details: details, Code: code})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeRaw(w, status, data)
}

func (s *Server) writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

// serveCached writes a cached 200 response for key, reporting whether
// there was one.
func (s *Server) serveCached(w http.ResponseWriter, key string) bool {
	data, _, ok := s.cache.Get(key)
	if !ok {
		return false
	}
	w.Header().Set("X-Cache", "hit")
	s.writeRaw(w, http.StatusOK, data)
	return true
}

func (s *Server) storeAndWrite(w http.ResponseWriter, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "Internal server error", "")
		return
	}
	s.cache.Set(key, data, "")
	w.Header().Set("X-Cache", "miss")
	s.writeRaw(w, http.StatusOK, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"cached_responses": s.cache.Len(),
	})
}

// ConvertRequest is the body of POST /api/v1/convert.
type ConvertRequest struct {
	DateTime string   `json:"datetime"`
	From     string   `json:"from"`
	Targets  []string `json:"targets"`
}

// TargetResult is one target of a convert response. Result is null when
// the target could not be converted.
type TargetResult struct {
	Zone   string            `json:"zone"`
	Result *tzconvert.Result `json:"result"`
	Label  string            `json:"label,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// ConvertResponse is the body returned by POST /api/v1/convert.
type ConvertResponse struct {
	Source   string         `json:"source"`
	From     string         `json:"from"`
	DateTime string         `json:"datetime"`
	Results  []TargetResult `json:"results"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get("X-Request-ID")

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ConvertRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.logger.Debug("Invalid request body", "request_id", requestID, "error", err)
		s.writeError(w, http.StatusBadRequest, "bad_request", "Invalid request", err.Error())
		return
	}
	if len(req.Targets) == 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "At least one target is required", "")
		return
	}

	source, err := tzconvert.Describe(req.DateTime)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed_input", "Invalid date/time", "expected MM/DD/YYYY H:MM AM|PM")
		return
	}
	if !s.zones.Valid(req.From) {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown_timezone", "Unknown source timezone", req.From)
		return
	}

	key := convertKey(req)
	if s.serveCached(w, key) {
		s.logger.Debug("Convert request served from cache", "request_id", requestID)
		return
	}

	resp := ConvertResponse{
		Source:   source,
		From:     req.From,
		DateTime: req.DateTime,
		Results:  make([]TargetResult, len(req.Targets)),
	}
	var g errgroup.Group
	g.SetLimit(8)
	for i, zone := range req.Targets {
		g.Go(func() error {
			result, err := s.engine.ConvertDateTime(req.DateTime, req.From, zone)
			switch {
			case err == nil:
				resp.Results[i] = TargetResult{Zone: zone, Result: result, Label: result.DayDiffLabel()}
			case errors.Is(err, tzconvert.ErrUnknownTimezone):
				resp.Results[i] = TargetResult{Zone: zone, Error: "unknown_timezone"}
			default:
				return fmt.Errorf("convert to %s: %w", zone, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, tzconvert.ErrMalformedInput) {
			s.writeError(w, http.StatusBadRequest, "malformed_input", "Invalid date/time", err.Error())
			return
		}
		s.logger.Error("Conversion failed",
			"request_id", requestID,
			"from", req.From,
			"error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "Conversion failed", "")
		return
	}

	s.logger.Info("Convert request completed",
		"request_id", requestID,
		"from", req.From,
		"targets", len(req.Targets),
		"duration_ms", time.Since(start).Milliseconds())
	s.storeAndWrite(w, key, resp)
}

func convertKey(req ConvertRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s", req.DateTime, req.From)
	for _, t := range req.Targets {
		fmt.Fprintf(h, "\x00%s", t)
	}
	return "convert:" + hex.EncodeToString(h.Sum(nil))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("datetime")
	resp := struct {
		DateTime   string `json:"datetime"`
		Normalized string `json:"normalized,omitempty"`
		Label      string `json:"label,omitempty"`
		Valid      bool   `json:"valid"`
	}{
		DateTime: value,
		Valid:    tzconvert.IsValidDateTime(value),
	}
	if resp.Valid {
		resp.Label, _ = tzconvert.Describe(value)
	} else {
		resp.Normalized, _ = tzconvert.Suggest(value)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// CityResult is a catalog entry as returned by /api/v1/cities.
type CityResult struct {
	cities.City
	Label     string   `json:"label"`
	Timezones []string `json:"timezones"`
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "bad_request", "Invalid limit", v)
			return
		}
		limit = n
	}

	key := fmt.Sprintf("cities:%s:%d", strings.ToLower(strings.TrimSpace(q.Get("q"))), limit)
	if s.serveCached(w, key) {
		return
	}

	found, err := cities.Search(q.Get("q"), limit)
	if err != nil {
		s.logger.Error("City catalog unavailable", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "City catalog unavailable", "")
		return
	}
	out := make([]CityResult, 0, len(found))
	for _, c := range found {
		out = append(out, CityResult{City: c, Label: c.Label(), Timezones: c.Timezones()})
	}
	s.storeAndWrite(w, key, map[string]any{"cities": out})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "lat and lng must be numbers", "")
		return
	}

	key := fmt.Sprintf("locate:%.3f,%.3f", lat, lng)
	if s.serveCached(w, key) {
		return
	}

	res, err := s.locator.Lookup(r.Context(), lat, lng)
	switch {
	case err == nil:
	case errors.Is(err, geotz.ErrInvalidCoordinates):
		s.writeError(w, http.StatusBadRequest, "invalid_coordinates", "Coordinates out of range", err.Error())
		return
	case errors.Is(err, geotz.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", "No timezone for location", "")
		return
	default:
		s.logger.Error("Locate failed", "lat", lat, "lng", lng, "error", err)
		s.writeError(w, http.StatusBadGateway, "upstream", "Timezone lookup failed", "")
		return
	}
	s.storeAndWrite(w, key, res)
}

// Clock is one zone's current reading.
type Clock struct {
	Zone   string `json:"zone"`
	Time   string `json:"time"`
	Offset string `json:"utc_offset"`
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	var zones []string
	for _, v := range r.URL.Query()["tz"] {
		for z := range strings.SplitSeq(v, ",") {
			if z = strings.TrimSpace(z); z != "" {
				zones = append(zones, z)
			}
		}
	}
	if len(zones) == 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "At least one tz is required", "")
		return
	}

	now := s.now()
	clocks := make([]Clock, 0, len(zones))
	for _, z := range zones {
		f, err := s.zones.Render(now, z)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "unknown_timezone", "Unknown timezone", z)
			return
		}
		clocks = append(clocks, Clock{
			Zone:   z,
			Time:   s.zones.CurrentTime(z, now),
			Offset: tzconvert.FormatOffset(f.Offset),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"now":    now.UTC().Format(time.RFC3339),
		"clocks": clocks,
	})
}
