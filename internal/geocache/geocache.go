// Package geocache caches nearby-business lookups by coarse location so
// repeated searches from roughly the same spot skip the places API.
package geocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"milify/internal/atomicfile"
	appLog "milify/internal/log"
	"milify/internal/model"
)

// DefaultTTL is how long a cached location stays valid.
const DefaultTTL = 24 * time.Hour

// Stats summarizes cache occupancy.
type Stats struct {
	Entries int    `json:"entries"`
	Size    string `json:"size"`
}

// Cache is a location-keyed TTL cache. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.CachedLocation
	ttl     time.Duration
	path    string
	now     func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache persisted at path ("" disables persistence).
// A non-positive ttl selects DefaultTTL.
func New(path string, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]model.CachedLocation),
		ttl:     ttl,
		path:    path,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key rounds lat/lng to two decimals (roughly 1km zones) and joins them as
// "lat,lng" in their shortest form, e.g. "38.9,-77.04". Halves round up.
func Key(lat, lng float64) string {
	return formatCoord(roundCoord(lat)) + "," + formatCoord(roundCoord(lng))
}

func roundCoord(v float64) float64 {
	r := math.Floor(v*100+0.5) / 100
	if r == 0 {
		// Normalize -0.
		return 0
	}
	return r
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Get returns the cached entry for the zone containing lat/lng if it is
// younger than the TTL.
func (c *Cache) Get(lat, lng float64) (model.CachedLocation, bool) {
	key := Key(lat, lng)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.Timestamp) >= c.ttl {
		return model.CachedLocation{}, false
	}
	return entry, true
}

// Set stores businesses for the zone containing lat/lng, replacing any
// previous entry.
func (c *Cache) Set(lat, lng float64, businesses []model.Business) model.CachedLocation {
	if businesses == nil {
		businesses = []model.Business{}
	}
	entry := model.CachedLocation{
		Lat:        lat,
		Lng:        lng,
		Timestamp:  c.now(),
		Businesses: businesses,
	}

	c.mu.Lock()
	c.entries[Key(lat, lng)] = entry
	c.mu.Unlock()

	return entry
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]model.CachedLocation)
	c.mu.Unlock()
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache) Prune() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.Timestamp) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats reports the entry count and the serialized size of the cache.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	n := len(c.entries)
	c.mu.RUnlock()

	if err != nil {
		appLog.Error("geocache stats: marshal failed", err)
	}
	return Stats{Entries: n, Size: formatSize(len(data))}
}

func formatSize(n int) string {
	if n > 1024 {
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}

// Load replaces the in-memory entries with the persisted file. A missing
// file leaves the cache empty.
func (c *Cache) Load() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("geocache load: %w", err)
	}

	entries := make(map[string]model.CachedLocation)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("geocache load: %w", err)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Save writes the cache to its file atomically.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("geocache save: %w", err)
	}

	if err := atomicfile.Write(c.path, data); err != nil {
		return fmt.Errorf("geocache save: %w", err)
	}
	return nil
}
