package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/codeGROOVE-dev/tzconv/pkg/geotz"
)

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	s := New(nil, opts...)
	s.now = func() time.Time { return time.Date(2026, time.February, 2, 17, 0, 0, 0, time.UTC) }
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConvert(t *testing.T) {
	h := newTestServer(t)
	body := `{"datetime":"02/02/2026 10:00 PM","from":"America/New_York","targets":["Asia/Dubai","Not/AZone","Pacific/Honolulu"]}`

	rec := do(t, h, http.MethodPost, "/api/v1/convert", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Cache") != "miss" {
		t.Errorf("X-Cache = %q, want miss", rec.Header().Get("X-Cache"))
	}

	var resp ConvertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Source != "02/02/2026 (Mon) at 10:00 PM" {
		t.Errorf("Source = %q", resp.Source)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("len(Results) = %d", len(resp.Results))
	}
	if r := resp.Results[0]; r.Result == nil || r.Result.String() != "02/03/2026 (Tue) at 7:00 AM" || r.Label != "1 day later" {
		t.Errorf("Results[0] = %+v", r)
	}
	if r := resp.Results[1]; r.Result != nil || r.Error != "unknown_timezone" {
		t.Errorf("Results[1] = %+v", r)
	}
	if r := resp.Results[2]; r.Result == nil || r.Result.String() != "02/02/2026 (Mon) at 5:00 PM" || r.Result.Offset != "UTC-10" {
		t.Errorf("Results[2] = %+v", r)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/convert", body)
	if rec.Header().Get("X-Cache") != "hit" {
		t.Errorf("second X-Cache = %q, want hit", rec.Header().Get("X-Cache"))
	}
}

func TestConvertErrors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"bad json", `{`, http.StatusBadRequest, "bad_request"},
		{"no targets", `{"datetime":"02/02/2026 10:00 PM","from":"UTC"}`, http.StatusBadRequest, "bad_request"},
		{"malformed", `{"datetime":"2/2/2026 10:00 PM","from":"UTC","targets":["UTC"]}`, http.StatusBadRequest, "malformed_input"},
		{"unknown source", `{"datetime":"02/02/2026 10:00 PM","from":"Mars/Base","targets":["UTC"]}`, http.StatusUnprocessableEntity, "unknown_timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/convert", tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.code, rec.Body)
			}
			var e errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
				t.Fatal(err)
			}
			if e.Code != tt.want {
				t.Errorf("code = %q, want %q", e.Code, tt.want)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1/convert", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestValidate(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		query      string
		valid      bool
		label      string
		normalized string
	}{
		{"02%2F02%2F2026+12%3A00+PM", true, "02/02/2026 (Mon) at 12:00 PM", ""},
		{"02%2F02%2F2026+13%3A00+PM", false, "", ""},
		{"020220261000p", false, "", "02/02/2026 10:00 PM"},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, "/api/v1/validate?datetime="+tt.query, "")
		var resp struct {
			Normalized string `json:"normalized"`
			Label      string `json:"label"`
			Valid      bool   `json:"valid"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Valid != tt.valid || resp.Label != tt.label || resp.Normalized != tt.normalized {
			t.Errorf("validate(%s) = %+v", tt.query, resp)
		}
	}
}

func TestCities(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/cities?q=dubai", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Cities []CityResult `json:"cities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Cities) != 1 || resp.Cities[0].Label != "Dubai, United Arab Emirates" {
		t.Errorf("cities = %+v", resp.Cities)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/cities?limit=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}
}

func TestLocate(t *testing.T) {
	h := newTestServer(t, WithLocator(geotz.New(nil, nil)))
	rec := do(t, h, http.MethodGet, "/api/v1/locate?lat=35.68&lng=139.69", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var res geotz.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q", res.Timezone)
	}

	tests := []struct {
		query string
		code  int
	}{
		{"lat=x&lng=1", http.StatusBadRequest},
		{"lat=91&lng=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodGet, "/api/v1/locate?"+tt.query, ""); rec.Code != tt.code {
			t.Errorf("locate?%s status = %d, want %d", tt.query, rec.Code, tt.code)
		}
	}
}

func TestNow(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/now?tz=Asia/Tokyo,America/New_York", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Now    string  `json:"now"`
		Clocks []Clock `json:"clocks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []Clock{
		{Zone: "Asia/Tokyo", Time: "2:00 AM", Offset: "UTC+9"},
		{Zone: "America/New_York", Time: "12:00 PM", Offset: "UTC-5"},
	}
	if resp.Now != "2026-02-02T17:00:00Z" || len(resp.Clocks) != 2 || resp.Clocks[0] != want[0] || resp.Clocks[1] != want[1] {
		t.Errorf("now = %+v", resp)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/now?tz=Mars/Base", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown tz status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/now", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing tz status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, WithRateLimit(2))
	for i := range 2 {
		if rec := do(t, h, http.MethodGet, "/api/v1/validate?datetime=x", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/api/v1/validate?datetime=x", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz limited: %d", rec.Code)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1)
	rl.now = func() time.Time { return now }
	if !rl.allow("1.2.3.4") || rl.allow("1.2.3.4") {
		t.Fatal("limit of 1 not enforced")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("limit shared across IPs")
	}
	now = now.Add(61 * time.Second)
	if !rl.allow("1.2.3.4") {
		t.Error("window did not slide")
	}
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(5)
	rl.now = func() time.Time { return now }
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rl.allow(ip)
	}

	now = now.Add(2 * time.Minute)
	rl.allow("10.0.0.9")
	if len(rl.requests) != 1 {
		t.Errorf("tracked clients = %d, want 1", len(rl.requests))
	}
	if _, ok := rl.requests["10.0.0.9"]; !ok {
		t.Error("active client was dropped")
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/v1/convert", `{"datetime":"02/02/2026 10:00 PM","from":"UTC","targets":["Asia/Tokyo"]}`)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	var resp struct {
		Status          string `json:"status"`
		CachedResponses int    `json:"cached_responses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.CachedResponses != 1 {
		t.Errorf("healthz = %+v", resp)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	for _, h := range []string{"X-Frame-Options", "X-Content-Type-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if _, err := uuid.Parse(rec.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID = %q: %v", rec.Header().Get("X-Request-ID"), err)
	}
}

func TestPanicRecovery(t *testing.T) {
	s := New(nil)
	h := s.wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := do(t, h, http.MethodGet, "/x", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
