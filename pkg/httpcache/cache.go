// Package httpcache caches successful GET responses in memory.
package httpcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
)

// Entry is a cached response body.
type Entry struct {
	ExpiresAt time.Time
	ETag      string
	Data      []byte
}

// Cache is a size-bounded, TTL-expiring response cache keyed by URL.
type Cache struct {
	cache  *otter.Cache[string, Entry]
	logger *slog.Logger
	ttl    time.Duration
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cache: otter.Must(&otter.Options[string, Entry]{
			MaximumSize:      size,
			ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
		}),
		ttl:    ttl,
		logger: logger,
	}
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached body and ETag for url.
func (c *Cache) Get(url string) ([]byte, string, bool) {
	entry, found := c.cache.GetIfPresent(key(url))
	if !found {
		c.logger.Debug("cache miss", "url", redact(url))
		return nil, "", false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.cache.Invalidate(key(url))
		return nil, "", false
	}
	return entry.Data, entry.ETag, true
}

// Set stores a body for url.
func (c *Cache) Set(url string, data []byte, etag string) {
	entry := Entry{Data: data, ETag: etag, ExpiresAt: time.Now().Add(c.ttl)}
	c.cache.Set(key(url), entry)
	c.logger.Debug("cache set", "url", redact(url), "expires_at", entry.ExpiresAt, "size", len(data))
}

// Len returns the approximate number of entries.
func (c *Cache) Len() int {
	return c.cache.EstimatedSize()
}

// HTTPClient is the subset of *http.Client the cache wraps.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CachedClient serves repeated GETs from a Cache.
type CachedClient struct {
	cache   *Cache
	client  HTTPClient
	logger  *slog.Logger
	storeIf func(body []byte) bool
}

// ClientOption configures a CachedClient.
type ClientOption func(*CachedClient)

// WithStoreIf stores a 200 response only when ok accepts its body. APIs
// that report errors inside a 200 use it to keep those out of the cache.
func WithStoreIf(ok func(body []byte) bool) ClientOption {
	return func(c *CachedClient) {
		c.storeIf = ok
	}
}

// NewCachedClient wraps client. A nil cache disables caching.
func NewCachedClient(cache *Cache, client HTTPClient, logger *slog.Logger, opts ...ClientOption) *CachedClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &CachedClient{cache: cache, client: client, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs req, answering GETs from the cache when possible. Only 200
// responses accepted by the WithStoreIf predicate are stored. Cached
// responses carry an X-From-Cache header.
func (c *CachedClient) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.client.Do(req)
	}

	url := req.URL.String()
	if data, etag, found := c.cache.Get(url); found {
		resp := &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		if etag != "" {
			resp.Header.Set("ETag", etag)
		}
		return resp, nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		c.logger.Debug("failed to close response body", "error", closeErr)
	}
	if err != nil {
		return nil, err
	}
	if c.storeIf == nil || c.storeIf(body) {
		c.cache.Set(url, body, resp.Header.Get("ETag"))
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// redact strips the query string, which may hold API keys.
func redact(url string) string {
	base, _, _ := strings.Cut(url, "?")
	return base
}
